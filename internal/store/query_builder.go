package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"rentdesk/internal/models"
)

// Radius applied to every proximity search, in kilometers. Callers cannot
// override it.
const searchRadiusKm = 1000.0

// Rough conversion from kilometers to degrees, no great-circle correction.
const kmPerDegree = 111.32

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId:      1,
		conditions: make([]string, 0),
		args:       make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

func (qb *queryBuilder) addFloatFilter(fieldName string, min *float64, max *float64) {
	if min != nil {
		qb.addCondition("%s >= $%d", fieldName, *min)
	}
	if max != nil {
		qb.addCondition("%s <= $%d", fieldName, *max)
	}
}

func (qb *queryBuilder) addIntFilter(fieldName string, min *int, max *int) {
	if min != nil {
		qb.addCondition("%s >= $%d", fieldName, *min)
	}
	if max != nil {
		qb.addCondition("%s <= $%d", fieldName, *max)
	}
}

func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// applyFilters turns the optional filter set into a WHERE clause over
// properties p joined with locations l.
func applyFilters(filters models.PropertyFilter) (string, []interface{}) {
	qb := newQueryBuilder()

	qb.addFloatFilter("p.price_per_month", filters.PriceMin, filters.PriceMax)
	qb.addIntFilter("p.square_feet", filters.SquareFeetMin, filters.SquareFeetMax)

	if filters.PropertyType != "" {
		qb.addCondition("%s = $%d", "p.property_type", filters.PropertyType)
	}

	if filters.BedsMin != nil {
		qb.addCondition("%s >= $%d", "p.beds", *filters.BedsMin)
	}
	if filters.BathsMin != nil {
		qb.addCondition("%s >= $%d", "p.baths", *filters.BathsMin)
	}

	// superset match: the listing must carry every requested amenity
	if len(filters.Amenities) > 0 {
		qb.addCondition("%s @> $%d", "p.amenities", pq.Array(filters.Amenities))
	}

	if filters.AvailableFrom != nil {
		condition := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM leases le WHERE le.property_id = p.id AND le.start_date <= $%d)",
			qb.argId,
		)
		qb.conditions = append(qb.conditions, condition)
		qb.args = append(qb.args, *filters.AvailableFrom)
		qb.argId++
	}

	if len(filters.IDs) > 0 {
		qb.addCondition("%s = ANY($%d)", "p.id", pq.Array(filters.IDs))
	}

	if filters.Latitude != nil && filters.Longitude != nil {
		radiusDegrees := searchRadiusKm / kmPerDegree
		condition := fmt.Sprintf(
			"ST_DWithin(l.coordinates::geometry, ST_SetSRID(ST_MakePoint($%d, $%d), 4326), $%d)",
			qb.argId, qb.argId+1, qb.argId+2,
		)
		qb.conditions = append(qb.conditions, condition)
		qb.args = append(qb.args, *filters.Longitude, *filters.Latitude, radiusDegrees)
		qb.argId += 3
	}

	return qb.build()
}

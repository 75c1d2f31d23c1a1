// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/api"
	"rentdesk/internal/auth"
	"rentdesk/internal/common/config"
	"rentdesk/internal/common/geocode"
	"rentdesk/internal/common/logger"
	"rentdesk/internal/common/storage"
	"rentdesk/internal/service"
	"rentdesk/internal/store"
)

type memoryS3 struct {
	keys []string
}

func (m *memoryS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.keys = append(m.keys, *input.Key)
	return &s3.PutObjectOutput{}, nil
}

type stack struct {
	handler http.Handler
	mock    sqlmock.Sqlmock
	bucket  *memoryS3
}

// newStack wires the full request path: chi router, auth gate, services,
// geocode client with a redis cache, S3 uploader, and a mocked database.
func newStack(t *testing.T) *stack {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"lat":"39.78","lon":"-89.65"}]`))
	}))
	t.Cleanup(nominatim.Close)

	log := logger.NewTestLogger(t)

	bucket := &memoryS3{}
	uploader := storage.NewUploaderWithClient(bucket, config.S3Config{
		Bucket: "rentdesk-photos",
		Region: "us-east-1",
	}, log)

	geocoder := geocode.New(config.GeocodingConfig{
		BaseURL:  nominatim.URL,
		Timeout:  5000,
		CacheTTL: 60,
	}, cache, log)

	properties := store.NewPropertyStore(db, log)
	applications := store.NewApplicationStore(db, log)
	leases := store.NewLeaseStore(db, log)
	users := store.NewUserStore(db, log)

	propertySvc := service.NewPropertyService(db, properties, users, uploader, geocoder, log)
	applicationSvc := service.NewApplicationService(db, applications, leases, users, properties, nil, log)
	profileSvc := service.NewProfileService(users, nil, log)

	gate := auth.NewGate(config.AuthConfig{
		RoleClaim:    "custom:role",
		SubjectClaim: "sub",
	}, log)

	server := api.NewServer(config.ServerConfig{Port: 0}, gate, api.Handlers{
		Properties:   api.NewPropertyHandler(propertySvc, log),
		Applications: api.NewApplicationHandler(applicationSvc, log),
		Profiles:     api.NewProfileHandler(profileSvc, log),
	}, nil, log)

	return &stack{handler: server.Handler(), mock: mock, bucket: bucket}
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         subject,
		"custom:role": role,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestCreatePropertyEndToEnd(t *testing.T) {
	s := newStack(t)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO locations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "st_x", "st_y"}).AddRow(int64(7), -89.65, 39.78))
	s.mock.ExpectQuery(`INSERT INTO properties`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "posted_date"}).
			AddRow("prop-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	s.mock.ExpectCommit()
	s.mock.ExpectQuery(`FROM managers WHERE id = \$1`).
		WithArgs("mgr-123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone_number"}).
			AddRow("mgr-123", "Morgan Leigh", "morgan@rentdesk.example", "+15550002222"))

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := map[string]string{
		"name":              "Maple Court 4B",
		"description":       "Sunny two-bed",
		"pricePerMonth":     "1450",
		"securityDeposit":   "1450",
		"applicationFee":    "75",
		"beds":              "2",
		"baths":             "1.5",
		"squareFeet":        "820",
		"propertyType":      "Apartment",
		"isPetsAllowed":     "true",
		"isParkingIncluded": "false",
		"amenities":         "Pool, Gym",
		"highlights":        "Renovated",
		"address":           "12 Maple St",
		"city":              "Springfield",
		"state":             "IL",
		"country":           "USA",
		"postalCode":        "62701",
	}
	for key, value := range fields {
		require.NoError(t, form.WriteField(key, value))
	}
	photo, err := form.CreateFormFile("photos", "front.jpg")
	require.NoError(t, err)
	_, err = io.WriteString(photo, "jpeg-bytes")
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/properties", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", token(t, "mgr-123", "manager"))

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID        string   `json:"id"`
		PhotoURLs []string `json:"photoUrls"`
		Location  struct {
			Coordinates struct {
				Longitude float64 `json:"longitude"`
				Latitude  float64 `json:"latitude"`
			} `json:"coordinates"`
		} `json:"location"`
		Manager struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"manager"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	assert.Equal(t, "prop-1", created.ID)
	require.Len(t, created.PhotoURLs, 1)
	assert.Contains(t, created.PhotoURLs[0], "rentdesk-photos.s3.us-east-1.amazonaws.com")
	assert.Equal(t, -89.65, created.Location.Coordinates.Longitude)
	assert.Equal(t, 39.78, created.Location.Coordinates.Latitude)
	assert.Equal(t, "mgr-123", created.Manager.ID)
	assert.Equal(t, "Morgan Leigh", created.Manager.Name)

	require.Len(t, s.bucket.keys, 1)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestSubmitApplicationEndToEnd(t *testing.T) {
	s := newStack(t)

	propertyRows := sqlmock.NewRows([]string{
		"id", "name", "description", "price_per_month", "security_deposit",
		"application_fee", "beds", "baths", "square_feet", "property_type",
		"is_pets_allowed", "is_parking_included", "amenities", "highlights",
		"photo_urls", "location_id", "manager_id", "posted_date",
		"address", "city", "state", "country", "postal_code", "longitude", "latitude",
	}).AddRow(
		"prop-1", "Maple Court 4B", "Sunny two-bed", 1450.0, 1450.0,
		75.0, 2, 1.5, 820, "Apartment",
		true, false, []byte("{Pool}"), []byte("{}"), []byte("{}"),
		int64(7), "mgr-123", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		"12 Maple St", "Springfield", "IL", "USA", "62701", -89.65, 39.78,
	)

	s.mock.ExpectQuery(`WHERE p\.id = \$1`).WithArgs("prop-1").WillReturnRows(propertyRows)
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO leases`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("lease-1"))
	s.mock.ExpectQuery(`INSERT INTO applications`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("app-1"))
	s.mock.ExpectCommit()

	payload := bytes.NewBufferString(`{
		"propertyId": "prop-1",
		"name": "Jamie Rivera",
		"email": "jamie@example.com",
		"phoneNumber": "+15550001111",
		"message": "Looking to move in next month"
	}`)

	req := httptest.NewRequest(http.MethodPost, "/applications", payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token(t, "tenant-1", "tenant"))

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		TenantID string `json:"tenantId"`
		Lease    struct {
			StartDate time.Time `json:"startDate"`
			EndDate   time.Time `json:"endDate"`
			Rent      float64   `json:"rent"`
		} `json:"lease"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	assert.Equal(t, "app-1", created.ID)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.Equal(t, 1450.0, created.Lease.Rent)
	assert.Equal(t, created.Lease.StartDate.AddDate(1, 0, 0), created.Lease.EndDate)

	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAnonymousCannotSubmitApplication(t *testing.T) {
	s := newStack(t)

	req := httptest.NewRequest(http.MethodPost, "/applications", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu     sync.Mutex
	method string
	path   string
	body   []byte
	status int
}

func (c *capture) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = req.Method
	c.path = req.URL.Path
	if req.Body != nil {
		c.body, _ = io.ReadAll(req.Body)
	}
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Etag": {`"etag"`}},
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Request:    req,
	}, nil
}

func newTestExporter(t *testing.T, rt http.RoundTripper) *S3Exporter {
	t.Helper()
	e, err := New(context.Background(), Config{
		Bucket:          "snapshots",
		Prefix:          "daily",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)
	e.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestExport_PutsJSONSnapshot(t *testing.T) {
	rt := &capture{}
	e := newTestExporter(t, rt)

	snap := models.Snapshot{
		Trucks: []models.Truck{{ID: "1", Plate: "ABC", SiteID: "P1"}},
		Users:  []models.User{{ID: "2", Login: "ana", Password: "secret"}},
	}
	key, err := e.Export(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "daily/snapshot-20250310T120000Z.json", key)

	assert.Equal(t, http.MethodPut, rt.method)
	assert.Equal(t, "/snapshots/daily/snapshot-20250310T120000Z.json", rt.path)
	assert.NotContains(t, string(rt.body), "secret")

	var doc struct {
		Counts   map[string]int  `json:"counts"`
		Snapshot models.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rt.body, &doc))
	assert.Equal(t, 1, doc.Counts["trucks"])
	assert.Equal(t, "ABC", doc.Snapshot.Trucks[0].Plate)
}

func TestExport_Failure(t *testing.T) {
	e := newTestExporter(t, &capture{status: http.StatusForbidden})
	_, err := e.Export(context.Background(), models.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put daily/snapshot-")
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNoBucket)
}

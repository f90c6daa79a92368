package api_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/adeelraza/income-backoffice/internal/api/testutils"
	"github.com/adeelraza/income-backoffice/internal/models"
	"github.com/stretchr/testify/assert"
)

// Simultaneous submissions for the same (user, year, month) must leave
// exactly one record behind regardless of how the requests interleave:
// the optimistic pre-check can pass in several of them at once, and the
// unique constraint decides the winner.
func TestConcurrentIncomeSubmission(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	const numGoroutines = 10

	addReq := models.AddIncomeRequest{
		Year:   2024,
		Month:  6,
		Amount: 1000,
	}

	codes := make(chan int, numGoroutines)
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodPost,
				"/income",
				addReq,
				testutils.AuthHeaders(testCtx.UserToken),
			)

			codes <- w.Code
		}()
	}

	wg.Wait()
	close(codes)

	created, conflicts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("unexpected status code %d", code)
		}
	}

	assert.Equal(t, 1, created, "exactly one submission wins")
	assert.Equal(t, numGoroutines-1, conflicts, "every other submission conflicts")

	// Exactly one record persisted for the period
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/income/my?year=2024&month=6",
		nil,
		testutils.AuthHeaders(testCtx.UserToken),
	)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 1.0, stats["totalRecords"])
	assert.Len(t, body["data"].([]interface{}), 1)
}

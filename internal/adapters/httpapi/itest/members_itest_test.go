package itest

import (
	"net/http"
	"strings"
	"testing"
)

func TestMembers_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)

			// Missing token => 401 with a request id.
			{
				status, body, hdr := srv.doJSON(t, http.MethodGet, "/members", "", nil)
				requireErrorCode(t, status, body, http.StatusUnauthorized, "UNAUTHENTICATED")
				if mustUnmarshal[errorResponse](t, body).Error.RequestId == "" {
					t.Fatalf("expected requestId; body=%s", string(body))
				}
				requireHeaderPresent(t, hdr, "Content-Type")
			}

			token := srv.login(t)

			var season struct {
				Season struct {
					SeasonId string `json:"seasonId"`
				} `json:"season"`
			}
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/seasons", token, map[string]any{
					"label":         "2025-2026",
					"startsOn":      "2025-09-01",
					"endsOn":        "2026-08-31",
					"licenseFees":   map[string]int64{"ADULT": 8000, "YOUTH": 6000},
					"insuranceFees": map[string]int64{"BASE": 1000},
					"makeCurrent":   true,
				})
				requireStatus(t, status, body, http.StatusCreated)
				season = mustUnmarshal[struct {
					Season struct {
						SeasonId string `json:"seasonId"`
					} `json:"season"`
				}](t, body)
			}

			memberBody := map[string]any{
				"firstName": "Alice",
				"lastName":  "Martin",
				"birthDate": "1990-04-12",
				"gender":    "F",
				"email":     "alice@example.org",
				"address": map[string]any{
					"street":     "12 rue des Lilas",
					"postalCode": "69003",
					"city":       "Lyon",
				},
			}
			var memberID string
			{
				status, body, _ := srv.doJSON(t, http.MethodPost, "/members", token, memberBody, "Idempotency-Key", "itest-create-alice")
				requireStatus(t, status, body, http.StatusCreated)
				memberID = mustUnmarshal[struct {
					Member struct {
						MemberId string `json:"memberId"`
					} `json:"member"`
				}](t, body).Member.MemberId
				if memberID == "" {
					t.Fatalf("expected memberId; body=%s", string(body))
				}
			}

			// Retrying with the same key replays; a different payload under that key is refused.
			{
				status, body, hdr := srv.doJSON(t, http.MethodPost, "/members", token, memberBody, "Idempotency-Key", "itest-create-alice")
				requireStatus(t, status, body, http.StatusCreated)
				if hdr.Get("Idempotent-Replayed") != "true" || !strings.Contains(string(body), memberID) {
					t.Fatalf("expected replay of %s; body=%s", memberID, string(body))
				}
				memberBody["lastName"] = "Other"
				status, body, _ = srv.doJSON(t, http.MethodPost, "/members", token, memberBody, "Idempotency-Key", "itest-create-alice")
				requireErrorCode(t, status, body, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")
			}

			// Register for the season and read it back through the roster and the dashboard.
			{
				status, body, _ := srv.doJSON(t, http.MethodPut, "/members/"+memberID+"/memberships/"+season.Season.SeasonId, token, map[string]any{
					"licenseType": "ADULT",
					"insurance":   "BASE",
					"paid":        true,
				})
				requireStatus(t, status, body, http.StatusOK)

				status, body, _ = srv.doJSON(t, http.MethodGet, "/members?seasonId="+season.Season.SeasonId, token, nil)
				requireStatus(t, status, body, http.StatusOK)
				page := mustUnmarshal[struct {
					Total int `json:"total"`
				}](t, body)
				if page.Total != 1 {
					t.Fatalf("total=%d body=%s", page.Total, string(body))
				}

				status, body, _ = srv.doJSON(t, http.MethodGet, "/dashboard", token, nil)
				requireStatus(t, status, body, http.StatusOK)
				dash := mustUnmarshal[struct {
					Stats struct {
						Members        int   `json:"members"`
						CollectedCents int64 `json:"collectedCents"`
					} `json:"stats"`
				}](t, body)
				if dash.Stats.Members != 1 || dash.Stats.CollectedCents != 9000 {
					t.Fatalf("unexpected dashboard: %s", string(body))
				}
			}

			// Seasons with memberships cannot be deleted; members can, taking memberships along.
			{
				status, body, _ := srv.doJSON(t, http.MethodDelete, "/seasons/"+season.Season.SeasonId, token, nil)
				requireErrorCode(t, status, body, http.StatusConflict, "SEASON_IN_USE")

				status, body, _ = srv.doJSON(t, http.MethodDelete, "/members/"+memberID, token, nil)
				requireStatus(t, status, body, http.StatusNoContent)

				status, body, _ = srv.doJSON(t, http.MethodDelete, "/seasons/"+season.Season.SeasonId, token, nil)
				requireStatus(t, status, body, http.StatusNoContent)
			}
		})
	}
}

package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/vmatch/internal/adapters/http/api"
	"github.com/okian/vmatch/internal/adapters/repository"
	service "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newMux() *http.ServeMux {
	store := repository.NewMemoryStore(context.Background(), repository.WithDemoData())
	svc := service.New(service.WithStore(store))
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		svc := service.New()
		server := api.NewServer(svc, &mockStatsProvider{stats: map[string]any{"started": false}})
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should expose metrics", func() {
				w := do(mux, http.MethodGet, "/healthz", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "vmatch_")
			})

			Convey("And stats endpoint should return the provider's stats", func() {
				w := do(mux, http.MethodGet, "/stats", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"started":false`)
			})

			Convey("And unknown paths should be 404", func() {
				w := do(mux, http.MethodGet, "/unknown", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the wrong method should be rejected", func() {
				w := do(mux, http.MethodPut, "/api/match", "")
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When registering on a nil mux", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestCatalogEndpoints(t *testing.T) {
	Convey("Given the demo catalog", t, func() {
		mux := newMux()

		Convey("When listing volunteers", func() {
			w := do(mux, http.MethodGet, "/api/volunteers", "")

			Convey("Then all three are returned with their skills", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var vols []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &vols), ShouldBeNil)
				So(len(vols), ShouldEqual, 3)
				So(vols[0]["skills"], ShouldResemble, []any{"First Aid", "Spanish", "Crowd Control"})
			})
		})

		Convey("When listing events", func() {
			w := do(mux, http.MethodGet, "/api/events", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"requiredSkills":["Food Handling","Logistics"]`)
		})
	})
}

func TestMatchEndpoints(t *testing.T) {
	Convey("Given the demo catalog", t, func() {
		mux := newMux()

		Convey("When an eligible volunteer is matched", func() {
			w := do(mux, http.MethodPost, "/api/match", `{"volunteerId":3,"eventId":102}`)

			Convey("Then the registration is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Matched      bool           `json:"matched"`
					Registration map[string]any `json:"registration"`
					Result       map[string]any `json:"result"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Matched, ShouldBeTrue)
				So(resp.Registration["status"], ShouldEqual, "registered")
				So(resp.Result["overlapCount"], ShouldEqual, 2.0)
				So(resp.Result["matchedSkills"], ShouldHaveLength, 2)
			})

			Convey("And a repeat is a 409 with its own code", func() {
				again := do(mux, http.MethodPost, "/api/match", `{"volunteerId":"3","eventId":"102"}`)
				So(again.Code, ShouldEqual, http.StatusConflict)
				body := decodeError(again)
				So(body.Code, ShouldEqual, "ALREADY_REGISTERED")
				So(body.Error, ShouldEqual, "Volunteer is already registered for this event")
			})

			Convey("And the registration is listed", func() {
				reg := do(mux, http.MethodGet, "/api/volunteer/3/registrations", "")
				So(reg.Code, ShouldEqual, http.StatusOK)
				So(reg.Body.String(), ShouldContainSubstring, `"eventIds":[102]`)
			})

			Convey("And it can be cancelled", func() {
				c := do(mux, http.MethodDelete, "/api/match", `{"volunteerId":3,"eventId":102}`)
				So(c.Code, ShouldEqual, http.StatusOK)
				reg := do(mux, http.MethodGet, "/api/volunteer/3/registrations", "")
				So(reg.Body.String(), ShouldContainSubstring, `"eventIds":[]`)
			})
		})

		Convey("When the volunteer is not eligible", func() {
			w := do(mux, http.MethodPost, "/api/match", `{"volunteerId":2,"eventId":101}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Code, ShouldEqual, "NOT_ELIGIBLE")
		})

		Convey("When ids are missing", func() {
			w := do(mux, http.MethodPost, "/api/match", `{"volunteerId":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decodeError(w)
			So(body.Code, ShouldEqual, "INVALID_REQUEST")
			So(body.Error, ShouldEqual, "volunteerId and eventId are required")
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/match", `not json`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the event is unknown", func() {
			w := do(mux, http.MethodPost, "/api/match", `{"volunteerId":1,"eventId":999}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "EVENT_NOT_FOUND")
		})

		Convey("When cancelling a pair that is not registered", func() {
			w := do(mux, http.MethodDelete, "/api/match", `{"volunteerId":1,"eventId":101}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When asking for the matches view", func() {
			w := do(mux, http.MethodGet, "/api/volunteer/1/matches", "")

			Convey("Then events are annotated and ranked", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Events     []map[string]any `json:"events"`
					Ranked     []map[string]any `json:"ranked"`
					Suggestion map[string]any   `json:"suggestion"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Events), ShouldEqual, 4)
				So(len(resp.Ranked), ShouldEqual, 2)
				So(resp.Suggestion["eventId"], ShouldEqual, 101.0)
			})
		})

		Convey("When the path id is not a number", func() {
			w := do(mux, http.MethodGet, "/api/volunteer/abc/matches", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the volunteer is unknown", func() {
			w := do(mux, http.MethodGet, "/api/volunteer/99/matches", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "VOLUNTEER_NOT_FOUND")
		})
	})
}

func TestNotificationEndpoints(t *testing.T) {
	Convey("Given the demo catalog", t, func() {
		mux := newMux()

		Convey("When sending a reminder to a volunteer", func() {
			w := do(mux, http.MethodPost, "/api/notifications",
				`{"volunteerId":1,"type":"reminder","message":"See you Saturday"}`)

			Convey("Then it is created and listed", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var resp struct {
					Sent          int              `json:"sent"`
					Notifications []map[string]any `json:"notifications"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Sent, ShouldEqual, 1)
				id := resp.Notifications[0]["id"].(string)

				list := do(mux, http.MethodGet, "/api/notifications?userId=1", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				So(list.Body.String(), ShouldContainSubstring, "See you Saturday")

				read := do(mux, http.MethodPost, "/api/notifications/"+id+"/read", "")
				So(read.Code, ShouldEqual, http.StatusOK)
				So(read.Body.String(), ShouldContainSubstring, `"isRead":true`)
			})
		})

		Convey("When the type is unknown", func() {
			w := do(mux, http.MethodPost, "/api/notifications", `{"volunteerId":1,"type":"spam","message":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w).Error, ShouldContainSubstring, "type must be one of")
		})

		Convey("When the message is too long", func() {
			long := strings.Repeat("a", 201)
			w := do(mux, http.MethodPost, "/api/notifications",
				`{"volunteerId":1,"type":"update","message":"`+long+`"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing without a user id", func() {
			w := do(mux, http.MethodGet, "/api/notifications", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When marking an unknown notification read", func() {
			w := do(mux, http.MethodPost, "/api/notifications/nope/read", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHistoryEndpoints(t *testing.T) {
	Convey("Given the demo catalog", t, func() {
		mux := newMux()

		Convey("When appending history", func() {
			w := do(mux, http.MethodPost, "/api/volunteer-history",
				`{"volunteerId":2,"eventId":104,"description":"Newsletter photos","hours":2.5,"volunteerDate":"2025-10-07"}`)

			Convey("Then it is stored and filterable", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				list := do(mux, http.MethodGet, "/api/volunteer-history?volunteerId=2", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				So(list.Body.String(), ShouldContainSubstring, "Newsletter photos")

				other := do(mux, http.MethodGet, "/api/volunteer-history?volunteerId=1", "")
				So(other.Body.String(), ShouldEqual, "[]\n")
			})
		})

		Convey("When hours are missing", func() {
			w := do(mux, http.MethodPost, "/api/volunteer-history",
				`{"volunteerId":2,"description":"x","volunteerDate":"2025-10-07"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When hours have been logged", func() {
			for _, body := range []string{
				`{"volunteerId":1,"description":"Vitals","hours":3,"volunteerDate":"2025-10-01"}`,
				`{"volunteerId":1,"description":"Check-in","hours":1.5,"volunteerDate":"2025-10-01"}`,
				`{"volunteerId":3,"description":"Pantry","hours":2,"volunteerDate":"2025-10-12"}`,
			} {
				So(do(mux, http.MethodPost, "/api/volunteer-history", body).Code, ShouldEqual, http.StatusCreated)
			}

			Convey("Then the summary totals them", func() {
				w := do(mux, http.MethodGet, "/api/volunteer-history/summary", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var sum map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &sum), ShouldBeNil)
				So(sum["totalVolunteers"], ShouldEqual, 2.0)
				So(sum["totalEntries"], ShouldEqual, 3.0)
				So(sum["totalHours"], ShouldEqual, 6.5)
			})

			Convey("And the per-volunteer summary is ordered by name", func() {
				w := do(mux, http.MethodGet, "/api/volunteer-history/volunteer-summary", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var rows []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0]["name"], ShouldEqual, "Alex Johnson")
				So(rows[0]["eventCount"], ShouldEqual, 2.0)
				So(rows[1]["name"], ShouldEqual, "Mason Rivera")
			})

			Convey("And an entry can be deleted once", func() {
				var entries []map[string]any
				list := do(mux, http.MethodGet, "/api/volunteer-history?volunteerId=3", "")
				So(json.Unmarshal(list.Body.Bytes(), &entries), ShouldBeNil)
				path := fmt.Sprintf("/api/volunteer-history/%d", int64(entries[0]["id"].(float64)))

				So(do(mux, http.MethodDelete, path, "").Code, ShouldEqual, http.StatusOK)
				again := do(mux, http.MethodDelete, path, "")
				So(again.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(again).Code, ShouldEqual, "NOT_FOUND")
			})
		})

		Convey("When nothing has been logged", func() {
			w := do(mux, http.MethodGet, "/api/volunteer-history/volunteer-summary", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "[]\n")
		})
	})
}

func TestEventAdminEndpoints(t *testing.T) {
	Convey("Given the demo catalog", t, func() {
		mux := newMux()

		Convey("When fetching one event", func() {
			w := do(mux, http.MethodGet, "/api/events/102", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"name":"Food Bank Drive"`)

			missing := do(mux, http.MethodGet, "/api/events/999", "")
			So(missing.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(missing).Code, ShouldEqual, "EVENT_NOT_FOUND")

			bad := do(mux, http.MethodGet, "/api/events/abc", "")
			So(bad.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When creating an event with delimited skills", func() {
			w := do(mux, http.MethodPost, "/api/events",
				`{"name":"Tree Planting","description":"Bring gloves","location":"Riverside","requiredSkills":"Logistics; Driving","capacity":30}`)

			Convey("Then it is created with normalized skills", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var ev map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &ev), ShouldBeNil)
				So(ev["id"], ShouldEqual, 105.0)
				So(ev["requiredSkills"], ShouldResemble, []any{"Logistics", "Driving"})
				So(ev["capacity"], ShouldEqual, 30.0)
			})

			Convey("And it can be updated", func() {
				up := do(mux, http.MethodPut, "/api/events/105",
					`{"name":"Tree Planting","description":"Bring gloves","location":"Hilltop","requiredSkills":["Logistics"]}`)
				So(up.Code, ShouldEqual, http.StatusOK)
				So(up.Body.String(), ShouldContainSubstring, `"location":"Hilltop"`)
			})

			Convey("And it can be deleted", func() {
				So(do(mux, http.MethodDelete, "/api/events/105", "").Code, ShouldEqual, http.StatusOK)
				So(do(mux, http.MethodGet, "/api/events/105", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When required fields are missing", func() {
			w := do(mux, http.MethodPost, "/api/events", `{"name":"Tree Planting"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decodeError(w)
			So(body.Code, ShouldEqual, "INVALID_REQUEST")
			So(body.Error, ShouldContainSubstring, "description is required")
		})

		Convey("When updating an unknown event", func() {
			w := do(mux, http.MethodPut, "/api/events/999", `{"name":"a","description":"b","location":"c"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "EVENT_NOT_FOUND")
		})
	})
}

func TestVolunteerProfileEndpoints(t *testing.T) {
	Convey("Given the demo roster", t, func() {
		mux := newMux()

		Convey("When a volunteer's skills are updated", func() {
			w := do(mux, http.MethodPut, "/api/volunteers/2", `{"skills":"[\"First Aid\",\"Spanish\"]","city":"Austin"}`)

			Convey("Then the profile is returned with normalized skills", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var v map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v["skills"], ShouldResemble, []any{"First Aid", "Spanish"})
				So(v["city"], ShouldEqual, "Austin")
				So(v["name"], ShouldEqual, "Taylor Kim")
			})

			Convey("And matching uses the new skills", func() {
				m := do(mux, http.MethodPost, "/api/match", `{"volunteerId":2,"eventId":101}`)
				So(m.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And the volunteer can be fetched", func() {
				got := do(mux, http.MethodGet, "/api/volunteers/2", "")
				So(got.Code, ShouldEqual, http.StatusOK)
				So(got.Body.String(), ShouldContainSubstring, `"city":"Austin"`)
			})
		})

		Convey("When the volunteer does not exist", func() {
			w := do(mux, http.MethodPut, "/api/volunteers/50", `{"city":"Austin"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w).Code, ShouldEqual, "VOLUNTEER_NOT_FOUND")
		})

		Convey("When the name is blanked", func() {
			w := do(mux, http.MethodPut, "/api/volunteers/2", `{"name":"  "}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

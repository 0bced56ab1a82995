package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"sekolahku/core"
	"sekolahku/core/authz"
	"sekolahku/core/review"
	"sekolahku/core/school"
	testutil "sekolahku/tests"
)

func Test_schoolApi_query(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI")
	beta := testutil.CreateSchool(t, schRepo, "SMA Beta", "10100002", "SMA", "SWASTA")
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.id", "", authz.RoleUser, "")

	// (5+4+4+5)/4 = 4.5, (3+3+4+4)/4 = 3.5; aggregate 4.0
	testutil.CreateReview(t, revRepo, alpha.ID, usr.ID, 5, 4, 4, 5, "bagus")
	testutil.CreateReview(t, revRepo, alpha.ID, usr.ID, 3, 3, 4, 4, "lumayan")

	alphaSummary := school.Summary{School: alpha, AvgRating: 4.0, ReviewCount: 2}
	betaSummary := school.Summary{School: beta, AvgRating: 0, ReviewCount: 0}

	tests := []httpTest{
		{name: "get all", path: "/v1/schools", wantCode: http.StatusOK, wantData: marchallList(t, alphaSummary, betaSummary)},
		{name: "search", path: "/v1/schools?search=beta", wantCode: http.StatusOK, wantData: marchallList(t, betaSummary)},
		{name: "filter by bentuk", path: "/v1/schools?bentuk=SD", wantCode: http.StatusOK, wantData: marchallList(t, alphaSummary)},
		{name: "filter by status", path: "/v1/schools?status=SWASTA", wantCode: http.StatusOK, wantData: marchallList(t, betaSummary)},
		{name: "no match", path: "/v1/schools?search=lol", wantCode: http.StatusOK, wantData: marchallList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_retrieve(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI",
		testutil.WithProfile("Sekolah dasar negeri.", "Tahfidz", "", ""))
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.id", "", authz.RoleUser, "")
	rev := testutil.CreateReview(t, revRepo, sch.ID, usr.ID, 4, 4, 3, 3, "oke") // avg 3.5

	// list queries decorate reviews with display names
	rev.UserName = usr.Name
	rev.SchoolName = sch.Name

	want := school.Detail{
		School:       sch,
		AvgRating:    3.5,
		ReviewCount:  1,
		Completeness: 50,
		Reviews:      []review.Review{rev},
	}

	tests := []httpTest{
		{name: "unknown school", path: "/v1/schools/lol", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: school.ErrNotFound.Error()})},
		{name: "detail", path: "/v1/schools/" + sch.ID, wantCode: http.StatusOK, wantData: marchallObj(t, want)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_nearby(t *testing.T) {
	app := setup(t)

	// origin: central Jakarta
	alpha := testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI",
		testutil.WithCoordinates(-6.21, 106.85))
	beta := testutil.CreateSchool(t, schRepo, "SMA Beta", "10100002", "SMA", "SWASTA",
		testutil.WithCoordinates(-6.914744, 107.609810)) // Bandung, ~116 km out
	testutil.CreateSchool(t, schRepo, "SMP Gamma", "10100003", "SMP", "NEGERI") // not geocoded

	path := func(lat, lng float64, limit int) string {
		p := fmt.Sprintf("/v1/schools/nearby?lat=%v&lng=%v", lat, lng)
		if limit > 0 {
			p += fmt.Sprintf("&limit=%d", limit)
		}
		return p
	}

	t.Run("invalid origin", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(91, 106.8, 0))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: school.ErrInvalidCoordinates.Error()})}, rec)
	})

	t.Run("ranked by distance", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(-6.2, 106.816666, 0))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var ranked []school.Ranked
		if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(ranked) != 2 { // ungeocoded schools are skipped
			t.Fatalf("len = %d; want 2", len(ranked))
		}
		if ranked[0].ID != alpha.ID || ranked[1].ID != beta.ID {
			t.Errorf("order = %s, %s; want %s, %s", ranked[0].Name, ranked[1].Name, alpha.Name, beta.Name)
		}
		for _, r := range ranked {
			if r.DistanceKm != core.Round(r.DistanceKm, 2) {
				t.Errorf("DistanceKm = %v; want 2 decimal places", r.DistanceKm)
			}
		}
		if !(ranked[0].DistanceKm < ranked[1].DistanceKm) {
			t.Errorf("distances not ascending: %v, %v", ranked[0].DistanceKm, ranked[1].DistanceKm)
		}
	})

	t.Run("limited", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path(-6.2, 106.816666, 1))
		app.ServeHTTP(rec, req)
		var ranked []school.Ranked
		if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(ranked) != 1 || ranked[0].ID != alpha.ID {
			t.Errorf("want only the closest school, got %d", len(ranked))
		}
	})
}

func Test_schoolApi_create(t *testing.T) {
	app := setup(t)

	root := testutil.CreateUser(t, usrRepo, "Root", "root@test.id", "", authz.RoleSuperadmin, "")
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.id", "", authz.RoleUser, "")
	testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI")

	body := func(name, npsn string) []byte {
		return marchallObj(t, map[string]string{
			"name": name, "npsn": npsn, "bentuk": "SMP", "status": "NEGERI", "alamat": "Jl. Melati 1",
		})
	}

	tests := []httpTest{
		{name: "auth required", body: body("SMP Baru", "10100009"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "superadmin only", token: getToken(t, usr), body: body("SMP Baru", "10100009"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied: INSUFFICIENT_ROLE"}),
		},
		{name: "invalid status rejected", token: getToken(t, root), body: marchallObj(t, map[string]string{"name": "X", "npsn": "1", "bentuk": "SD", "status": "lol", "alamat": "a"}), wantCode: http.StatusBadRequest},
		{
			name: "duplicate npsn", token: getToken(t, root), body: body("SDN Alpha Clone", "10100001"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"npsn": school.ErrNPSNExists.Error()}),
		},
		{name: "created", token: getToken(t, root), body: body("SMP Baru", "10100009"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/schools", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_update(t *testing.T) {
	app := setup(t)

	alpha := testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI")
	beta := testutil.CreateSchool(t, schRepo, "SMA Beta", "10100002", "SMA", "SWASTA")

	root := testutil.CreateUser(t, usrRepo, "Root", "root@test.id", "", authz.RoleSuperadmin, "")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.id", "", authz.RoleSchoolAdmin, alpha.ID)

	body := marchallObj(t, map[string]string{"description": "Sekolah unggulan."})

	tests := []httpTest{
		{name: "auth required", path: "/v1/schools/" + alpha.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin scoped to own school", path: "/v1/schools/" + beta.ID, token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied: TENANT_MISMATCH"}),
		},
		{name: "admin updates own school", path: "/v1/schools/" + alpha.ID, token: getToken(t, admin), wantCode: http.StatusOK},
		{name: "superadmin updates any school", path: "/v1/schools/" + beta.ID, token: getToken(t, root), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	refreshed, err := schRepo.GetSchoolByID(context.Background(), alpha.ID)
	if err != nil {
		t.Fatalf("GetSchoolByID() failed: %v", err)
	}
	if refreshed.Description.String != "Sekolah unggulan." {
		t.Errorf("Description = %q; want updated", refreshed.Description.String)
	}
}

func Test_schoolApi_destroy(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "SDN Alpha", "10100001", "SD", "NEGERI")
	root := testutil.CreateUser(t, usrRepo, "Root", "root@test.id", "", authz.RoleSuperadmin, "")
	usr := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.id", "", authz.RoleUser, "")

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "superadmin required", token: getToken(t, usr), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "deleted", token: getToken(t, root), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, "/v1/schools/"+sch.ID, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	if _, err := schRepo.GetSchoolByID(context.Background(), sch.ID); err != school.ErrNotFound {
		t.Errorf("GetSchoolByID() error = %v; want %v", err, school.ErrNotFound)
	}
}

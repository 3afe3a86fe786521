package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	types "github.com/fpda/academy-backend/internal/domain"
	httpH "github.com/fpda/academy-backend/internal/http/handlers"
	httpMW "github.com/fpda/academy-backend/internal/http/middleware"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

const (
	testSecret   = "router-test-secret"
	testAudience = "authenticated"
)

var certNumberPattern = regexp.MustCompile(`^FPDA-\d+-[0-9A-Z]{6}$`)

type routerEnv struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := httpH.RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}
	db := testutil.DB(t)
	log := logger.NewNop()

	courseRepo := repos.NewCourseRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	catalog := services.NewCatalogService(db, log, 0, courseRepo, enrollmentRepo, nil)
	enrollments := services.NewEnrollmentService(db, log, 0, courseRepo, enrollmentRepo)
	progress := services.NewProgressService(db, log, 0, repos.NewCourseLessonRepo(db, log), repos.NewLessonProgressRepo(db, log), enrollments)
	certificates := services.NewCertificateService(db, log, 0, services.CertificateConfig{}, courseRepo, repos.NewCertificationRepo(db, log), progress, nil, nil)
	quizzes := services.NewQuizService(aggregates.NewTxRunner(db), log, 0, repos.NewQuizRepo(db, log), repos.NewQuizAttemptRepo(db, log), enrollments)
	payments := services.NewPaymentService(db, log, 0, services.PaymentConfig{}, courseRepo, repos.NewPaymentEventRepo(db, log), enrollments)
	auth := services.NewAuthService(log, services.AuthConfig{Secret: testSecret, Audience: testAudience})

	engine := NewRouter(RouterConfig{
		Log:                log,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, auth),
		HealthHandler:      httpH.NewHealthHandler(),
		CourseHandler:      httpH.NewCourseHandler(log, catalog, enrollments, progress, payments),
		MeHandler:          httpH.NewMeHandler(log, enrollments, certificates),
		ProgressHandler:    httpH.NewProgressHandler(log, progress),
		LessonHandler:      httpH.NewLessonHandler(log, progress),
		QuizHandler:        httpH.NewQuizHandler(log, quizzes),
		CertificateHandler: httpH.NewCertificateHandler(log, certificates),
		PaymentHandler:     httpH.NewPaymentHandler(log, payments),
	})
	return &routerEnv{db: db, engine: engine}
}

func mintToken(t *testing.T, learnerID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":           learnerID.String(),
		"aud":           testAudience,
		"exp":           time.Now().Add(time.Hour).Unix(),
		"email":         "learner@example.com",
		"user_metadata": map[string]any{"full_name": "Lee Learner"},
	})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func (env *routerEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Unmarshal %s: %v", rec.Body.String(), err)
	}
}

func completeAll(t *testing.T, env *routerEnv, token string, lessonIDs []uuid.UUID) {
	t.Helper()
	for _, id := range lessonIDs {
		rec := env.do(t, http.MethodPost, "/api/lessons/"+id.String()+"/complete", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("complete lesson: status %d: %s", rec.Code, rec.Body.String())
		}
	}
}

func TestGenerateCertificateAfterCompletion(t *testing.T) {
	env := newRouterEnv(t)
	ctx := context.Background()
	learner := uuid.New()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{3}})
	testutil.SeedEnrollment(t, ctx, env.db, learner, course.ID)
	token := mintToken(t, learner)

	completeAll(t, env, token, testutil.LessonIDs(course))

	rec := env.do(t, http.MethodPost, "/api/certificates/generate", token, map[string]string{"courseId": course.ID.String()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		CertificateID     uuid.UUID `json:"certificateId"`
		CertificateNumber string    `json:"certificateNumber"`
	}
	decode(t, rec, &body)
	if !certNumberPattern.MatchString(body.CertificateNumber) {
		t.Fatalf("certificate number %q has the wrong format", body.CertificateNumber)
	}

	var rows []types.Certification
	if err := env.db.Where("user_id = ? AND course_id = ?", learner, course.ID).Find(&rows).Error; err != nil {
		t.Fatalf("Find certifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("certifications = %d, want 1", len(rows))
	}
	cert := rows[0]
	if cert.ID != body.CertificateID || cert.ExpiresAt == nil {
		t.Fatalf("stored certificate does not match response: %+v", cert)
	}
	if want := services.AddYearsClamped(cert.IssuedAt, 3); !cert.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", cert.ExpiresAt, want)
	}

	rec = env.do(t, http.MethodPost, "/api/certificates/generate", token, map[string]string{"courseId": course.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("second generate: status %d: %s", rec.Code, rec.Body.String())
	}
	var again struct {
		CertificateID uuid.UUID `json:"certificateId"`
	}
	decode(t, rec, &again)
	if again.CertificateID != body.CertificateID {
		t.Fatalf("second generate returned %s, want %s", again.CertificateID, body.CertificateID)
	}

	rec = env.do(t, http.MethodGet, "/api/certificates/"+body.CertificateNumber+"/verify", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", rec.Code, rec.Body.String())
	}
	var v services.CertificateVerification
	decode(t, rec, &v)
	if !v.Valid || v.RecipientName != "Lee Learner" {
		t.Fatalf("verification = %+v", v)
	}
}

func TestGenerateCertificateNotCompleted(t *testing.T) {
	env := newRouterEnv(t)
	ctx := context.Background()
	learner := uuid.New()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{3}})
	testutil.SeedEnrollment(t, ctx, env.db, learner, course.ID)
	token := mintToken(t, learner)

	completeAll(t, env, token, testutil.LessonIDs(course)[:2])

	rec := env.do(t, http.MethodPost, "/api/certificates/generate", token, map[string]string{"courseId": course.ID.String()})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("generate: status %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Progress services.CourseProgress `json:"progress"`
	}
	decode(t, rec, &body)
	want := services.CourseProgress{CompletedCount: 2, TotalCount: 3, Percentage: 67, IsCompleted: false}
	if body.Error.Code != "not_completed" || body.Progress != want {
		t.Fatalf("body = %+v", body)
	}

	var n int64
	if err := env.db.Model(&types.Certification{}).Where("user_id = ?", learner).Count(&n).Error; err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("certifications = %d, want 0", n)
	}
}

func TestGenerateCertificateRequestErrors(t *testing.T) {
	env := newRouterEnv(t)
	token := mintToken(t, uuid.New())

	cases := []struct {
		name   string
		token  string
		body   any
		status int
	}{
		{"no token", "", map[string]string{"courseId": uuid.NewString()}, http.StatusUnauthorized},
		{"unknown course", token, map[string]string{"courseId": uuid.NewString()}, http.StatusNotFound},
		{"bad course id", token, map[string]string{"courseId": "abc"}, http.StatusBadRequest},
		{"missing course id", token, map[string]string{}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := env.do(t, http.MethodPost, "/api/certificates/generate", tc.token, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status %d, want %d: %s", tc.name, rec.Code, tc.status, rec.Body.String())
		}
	}
}

func TestCourseRoutes(t *testing.T) {
	env := newRouterEnv(t)
	ctx := context.Background()
	learner := uuid.New()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Slug: "birth-doula-foundations", Lessons: []int{2, 1}})
	token := mintToken(t, learner)

	rec := env.do(t, http.MethodGet, "/api/courses/birth-doula-foundations", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get course: status %d: %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Course types.Course `json:"course"`
	}
	decode(t, rec, &detail)
	if locked := detail.Course.Modules[0].Lessons[1]; locked.Content != "" || locked.VideoURL != "" {
		t.Fatalf("locked lesson leaked content: %+v", locked)
	}

	if rec := env.do(t, http.MethodGet, "/api/courses/Not_A_Slug", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad slug: status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/courses/no-such-course", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing course: status %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/courses?level=expert", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad level: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/courses/birth-doula-foundations/learn", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("learn before enrollment: status %d", rec.Code)
	}

	testutil.SeedEnrollment(t, ctx, env.db, learner, course.ID)
	rec = env.do(t, http.MethodGet, "/api/courses/birth-doula-foundations/enrollment", token, nil)
	var enrolled struct {
		Enrolled bool `json:"enrolled"`
	}
	decode(t, rec, &enrolled)
	if !enrolled.Enrolled {
		t.Fatalf("enrollment check = false after enrolling")
	}

	completeAll(t, env, token, testutil.LessonIDs(course)[:1])
	rec = env.do(t, http.MethodGet, "/api/courses/birth-doula-foundations/learn", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("learn: status %d: %s", rec.Code, rec.Body.String())
	}
	var learn struct {
		Course             types.Course            `json:"course"`
		Progress           services.CourseProgress `json:"progress"`
		CompletedLessonIDs []uuid.UUID             `json:"completedLessonIds"`
	}
	decode(t, rec, &learn)
	if learn.Course.Modules[0].Lessons[1].Content == "" {
		t.Fatalf("learner view is missing lesson content")
	}
	if learn.Progress.Percentage != 33 || len(learn.CompletedLessonIDs) != 1 {
		t.Fatalf("learn progress = %+v, completed = %v", learn.Progress, learn.CompletedLessonIDs)
	}
}

func TestPaymentWebhookEnrolls(t *testing.T) {
	env := newRouterEnv(t)
	ctx := context.Background()
	learner := uuid.New()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{1}})

	event := func(id, typ, learnerRef, slug string) map[string]any {
		return map[string]any{
			"id":   id,
			"type": typ,
			"data": map[string]any{"object": map[string]any{
				"id":                  "cs_" + id,
				"client_reference_id": learnerRef,
				"metadata":            map[string]string{"course_slug": slug},
			}},
		}
	}
	eventID := func() string { return fmt.Sprintf("evt_%s", uuid.NewString()[:12]) }

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"ignored type", event(eventID(), "invoice.paid", learner.String(), course.Slug), http.StatusOK},
		{"missing learner", event(eventID(), services.EventCheckoutCompleted, "", course.Slug), http.StatusBadRequest},
		{"unknown course", event(eventID(), services.EventCheckoutCompleted, learner.String(), "no-such-course"), http.StatusNotFound},
	}
	for _, tc := range cases {
		if rec := env.do(t, http.MethodPost, "/api/webhooks/payments", "", tc.body); rec.Code != tc.status {
			t.Fatalf("%s: status %d, want %d: %s", tc.name, rec.Code, tc.status, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodPost, "/api/webhooks/payments", "", event(eventID(), services.EventCheckoutCompleted, learner.String(), course.Slug))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: status %d: %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Success      bool      `json:"success"`
		EnrollmentID uuid.UUID `json:"enrollmentId"`
	}
	decode(t, rec, &first)
	if !first.Success || first.EnrollmentID == uuid.Nil {
		t.Fatalf("webhook body = %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/webhooks/payments", "", event(eventID(), services.EventCheckoutCompleted, learner.String(), course.Slug))
	var second struct {
		Message      string    `json:"message"`
		EnrollmentID uuid.UUID `json:"enrollmentId"`
	}
	decode(t, rec, &second)
	if second.Message != "Already enrolled" || second.EnrollmentID != first.EnrollmentID {
		t.Fatalf("second webhook body = %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/me/enrollments", mintToken(t, learner), nil)
	var mine struct {
		Enrollments []services.EnrolledCourse `json:"enrollments"`
	}
	decode(t, rec, &mine)
	if len(mine.Enrollments) != 1 || mine.Enrollments[0].CourseID != course.ID {
		t.Fatalf("me/enrollments = %+v", mine.Enrollments)
	}
}

func TestHealthcheck(t *testing.T) {
	env := newRouterEnv(t)
	rec := env.do(t, http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing X-Request-Id header")
	}
}

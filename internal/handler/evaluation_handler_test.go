package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/satyadur/nexora-api/internal/config"
	"github.com/satyadur/nexora-api/internal/handler"
	"github.com/satyadur/nexora-api/internal/models"
	"github.com/satyadur/nexora-api/internal/repository"
	"github.com/satyadur/nexora-api/internal/router"
	"github.com/satyadur/nexora-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type sessionView struct {
	SubmissionID uint   `json:"submission_id"`
	Status       string `json:"status"`
	Finalized    bool   `json:"finalized"`
	SubmitReady  bool   `json:"submit_ready"`
	Answers      []struct {
		QuestionID   uint    `json:"question_id"`
		QuestionType string  `json:"question_type"`
		AwardedMarks float64 `json:"awarded_marks"`
		Verdict      string  `json:"verdict"`
	} `json:"answers"`
	Stats struct {
		TotalAwarded  float64 `json:"total_awarded"`
		TotalPossible float64 `json:"total_possible"`
		Percentage    float64 `json:"percentage"`
	} `json:"stats"`
}

func setupEvaluationApp(t *testing.T, role string) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.Question{},
		&models.Submission{},
		&models.Answer{},
		&models.ActivityLog{},
	))

	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationRepo := repository.NewEvaluationRepository(db)
	drafts := repository.NewRedisDraftStore(redisClient, time.Hour)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, drafts, activity, nil, logger)

	app := fiber.New()
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, validate, logger)

	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return app, db
}

func seedGradableSubmission(t *testing.T, db *gorm.DB) models.Submission {
	t.Helper()

	student := models.Student{Name: "Jane Okafor", Email: "jane@example.com", Class: "9A"}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		Title:       "Physics Homework",
		Description: "Forces and motion",
		DueDate:     time.Now().Add(24 * time.Hour),
		MaxMarks:    15,
		Questions: []models.Question{
			{
				Position:  1,
				Type:      models.QuestionTypeMultipleChoice,
				Text:      "Unit of force?",
				MaxMarks:  5,
				Options:   []byte(`["Newton","Joule","Watt"]`),
				AnswerKey: "Newton",
			},
			{
				Position: 2,
				Type:     models.QuestionTypeFreeText,
				Text:     "State Newton's second law.",
				MaxMarks: 10,
			},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Status:       models.SubmissionStatusInProgress,
		Answers: []models.Answer{
			{QuestionID: assignment.Questions[0].ID, StudentAnswer: "Newton", Verdict: "pending"},
			{QuestionID: assignment.Questions[1].ID, StudentAnswer: "F equals m times a.", Verdict: "pending"},
		},
	}
	require.NoError(t, db.Create(&submission).Error)

	return submission
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		blob, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(blob)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var payload envelope
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func decodeSession(t *testing.T, payload envelope) sessionView {
	t.Helper()
	var view sessionView
	require.NoError(t, json.Unmarshal(payload.Data, &view))
	return view
}

func TestEvaluationFlowOverHTTP(t *testing.T) {
	app, db := setupEvaluationApp(t, "teacher")
	submission := seedGradableSubmission(t, db)
	base := "/api/v1/evaluations/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp, payload := doJSON(t, app, http.MethodPost, base+"/open", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	opened := decodeSession(t, payload)
	require.Equal(t, "ready", opened.Status)
	require.False(t, opened.SubmitReady)

	// The multiple-choice answer is settled at load.
	require.Equal(t, "correct", opened.Answers[0].Verdict)
	require.InDelta(t, 5.0, opened.Answers[0].AwardedMarks, 1e-9)

	freeTextID := opened.Answers[1].QuestionID
	questionPath := base + "/answers/" + strconv.FormatUint(uint64(freeTextID), 10)

	resp, _ = doJSON(t, app, http.MethodPut, questionPath+"/marks", fiber.Map{"awarded_marks": 25.0})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPut, questionPath+"/verdict", fiber.Map{"verdict": "correct"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, decodeSession(t, payload).SubmitReady)

	resp, payload = doJSON(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	final := decodeSession(t, payload)
	require.True(t, final.Finalized)
	require.InDelta(t, 100.0, final.Stats.Percentage, 1e-9)

	// A second submit hits the finalized guard.
	resp, payload = doJSON(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.Equal(t, "session_finalized", payload.Code)

	var stored models.Submission
	require.NoError(t, db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusEvaluated, stored.Status)
	require.NotNil(t, stored.EvaluatedBy)
	require.Equal(t, uint(1), *stored.EvaluatedBy)
}

func TestEvaluationSubmitNotReadyOverHTTP(t *testing.T) {
	app, db := setupEvaluationApp(t, "teacher")
	submission := seedGradableSubmission(t, db)
	base := "/api/v1/evaluations/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp, _ := doJSON(t, app, http.MethodPost, base+"/open", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload := doJSON(t, app, http.MethodPost, base+"/submit", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "not_ready", payload.Code)
}

func TestEvaluationDraftOverHTTP(t *testing.T) {
	app, db := setupEvaluationApp(t, "teacher")
	submission := seedGradableSubmission(t, db)
	base := "/api/v1/evaluations/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp, payload := doJSON(t, app, http.MethodPost, base+"/open", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	freeTextID := decodeSession(t, payload).Answers[1].QuestionID
	questionPath := base + "/answers/" + strconv.FormatUint(uint64(freeTextID), 10)

	resp, _ = doJSON(t, app, http.MethodPut, questionPath+"/marks", fiber.Map{"awarded_marks": 7.0})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, base+"/draft", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Drop the session, reopen, restore.
	resp, _ = doJSON(t, app, http.MethodDelete, base, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPost, base+"/open", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodPost, base+"/draft/restore", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	restored := decodeSession(t, payload)
	require.InDelta(t, 7.0, restored.Answers[1].AwardedMarks, 1e-9)
}

func TestEvaluationRequiresTeacherRole(t *testing.T) {
	app, db := setupEvaluationApp(t, "student")
	submission := seedGradableSubmission(t, db)
	base := "/api/v1/evaluations/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp, _ := doJSON(t, app, http.MethodPost, base+"/open", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestEvaluationOpenUnknownSubmission(t *testing.T) {
	app, _ := setupEvaluationApp(t, "teacher")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/evaluations/9999/open", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "submission_not_found", payload.Code)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
)

func TestRespondAPIErrorMapsCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{errs.NotFound("op", "session map not found: 7"), http.StatusNotFound, "not_found", "op: session map not found: 7 (not_found)"},
		{errs.Validation("op", "bad"), http.StatusBadRequest, "validation", "op: bad (validation)"},
		{errs.NewError(errs.CodeConflict, "op", "dup", nil), http.StatusConflict, "conflict", "op: dup (conflict)"},
		{errs.NewError(errs.CodeGeneration, "op", "model overloaded", nil), http.StatusBadGateway, "generation", "op: model overloaded (generation)"},
		{errs.NewError(errs.CodePersistence, "op", "secret dsn", nil), http.StatusInternalServerError, "persistence", "internal error"},
		{errors.New("plain"), http.StatusInternalServerError, "internal", "internal error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondAPIError(c, tc.err)

		if rec.Code != tc.status {
			t.Fatalf("%v: status want=%d got=%d", tc.err, tc.status, rec.Code)
		}
		var body ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Success || body.Error.Code != tc.code || body.Error.Message != tc.message {
			t.Fatalf("%v: unexpected body %+v", tc.err, body)
		}
	}
}

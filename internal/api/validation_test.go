package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteForm struct {
	Plan     string `json:"plan" validate:"required,plan"`
	Duration int    `json:"duration" validate:"required,gte=1,lte=365"`
	Start    string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Policy   string `json:"calendar_policy" validate:"omitempty,calendar_policy"`
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(quoteForm{Plan: "Weekly", Duration: 12, Start: "2025-07-17", Policy: "sunday_only"})
	assert.Empty(t, errs)
}

func TestValidateStruct_Messages(t *testing.T) {
	errs := ValidateStruct(quoteForm{Plan: "hourly", Duration: 400, Start: "17/07/2025", Policy: "holidays"})
	require.Len(t, errs, 4)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}

	assert.Equal(t, "plan", byField["plan"].Tag)
	assert.Equal(t, "plan must be one of: daily weekly monthly", byField["plan"].Message)
	assert.Equal(t, "duration must be less than or equal to 365", byField["duration"].Message)
	assert.Equal(t, "datetime", byField["start_date"].Tag)
	assert.Equal(t, "calendar_policy must be one of: none weekday_only sunday_only", byField["calendar_policy"].Message)
}

func TestValidateStruct_Required(t *testing.T) {
	errs := ValidateStruct(quoteForm{})
	require.Len(t, errs, 2)
	assert.Equal(t, "plan is required", errs[0].Message)
	assert.Equal(t, "duration is required", errs[1].Message)
}

func TestRespondWithValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithValidationErrors(c, []ValidationError{{Field: "plan", Tag: "required", Message: "plan is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	assert.Contains(t, w.Body.String(), "plan is required")
}

package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// SessionResponse represents a newly created capture session
type SessionResponse struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CreatedAt string `json:"created_at" example:"2026-01-01T08:00:00Z"`
}

// LivenessData represents the liveness evaluation for a frame
type LivenessData struct {
	Verdict      string  `json:"verdict" example:"LIVE"`
	Confidence   float64 `json:"confidence" example:"0.85"`
	Message      string  `json:"message,omitempty" example:"liveness checks failed"`
	ChecksPassed int     `json:"checks_passed" example:"2"`
	WindowFrames int     `json:"window_frames" example:"42"`
}

// AttendanceEventData represents the attendance transition for a frame
type AttendanceEventData struct {
	Outcome string `json:"outcome" example:"check_in"`
	Reason  string `json:"reason,omitempty" example:"cooldown"`
}

// FrameResponse represents the outcome of processing one camera frame
type FrameResponse struct {
	Status     string               `json:"status" example:"RECOGNIZED"`
	Message    string               `json:"message,omitempty" example:"still scanning"`
	Liveness   LivenessData         `json:"liveness"`
	EmployeeID int64                `json:"employee_id,omitempty" example:"42"`
	Name       string               `json:"name,omitempty" example:"Alice Nguyen"`
	Similarity float64              `json:"similarity,omitempty" example:"0.91"`
	Attendance *AttendanceEventData `json:"attendance,omitempty"`
}

// EnrollmentResponse represents a successful enrollment
type EnrollmentResponse struct {
	EmployeeID int64  `json:"employee_id" example:"42"`
	PhotoRef   string `json:"photo_ref,omitempty" example:"42_550e8400.jpg"`
	EnrolledAt string `json:"enrolled_at" example:"2026-01-01T08:00:00Z"`
}

// AttendanceRecordResponse represents one employee's attendance for a day
type AttendanceRecordResponse struct {
	EmployeeID   int64    `json:"employee_id" example:"42"`
	Date         string   `json:"date" example:"2026-01-01T00:00:00Z"`
	CheckInTime  string   `json:"check_in_time" example:"2026-01-01T08:00:00Z"`
	CheckOutTime string   `json:"check_out_time,omitempty" example:"2026-01-01T17:00:00Z"`
	Status       string   `json:"status" example:"CHECKED_IN"`
	WorkingHours *float64 `json:"working_hours,omitempty" example:"8.0"`
}

// SettingsData represents the runtime recognition tunables
type SettingsData struct {
	MatchThreshold     float64 `json:"match_threshold" example:"0.75"`
	DuplicateThreshold float64 `json:"duplicate_threshold" example:"0.75"`
	CooldownSeconds    int     `json:"cooldown_seconds" example:"5"`
	MinConfidence      float64 `json:"min_confidence" example:"0.8"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string   `json:"code" example:"VALIDATION_FAILED"`
	Message string   `json:"message" example:"Request validation failed"`
	Details []string `json:"details,omitempty"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Faceclock Attendance API",
		Version:     "v1.0.0",
		Description: "Biometric attendance API: face enrollment, kiosk capture sessions with liveness detection, and a cooldown-guarded attendance ledger",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Kiosk endpoints

		// POST /v1/kiosk/sessions - Start Capture Session
		endpoint.New(
			endpoint.POST,
			"/kiosk/sessions",
			endpoint.WithTags("Kiosk"),
			endpoint.WithSummary("Start a capture session"),
			endpoint.WithDescription("Opens a new capture session with fresh liveness state. One session per person in front of the kiosk."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "201", "Session created successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/kiosk/sessions/:id - End Capture Session
		endpoint.New(
			endpoint.DELETE,
			"/kiosk/sessions/{id}",
			endpoint.WithTags("Kiosk"),
			endpoint.WithSummary("End a capture session"),
			endpoint.WithDescription("Discards a capture session and its accumulated liveness evidence"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Capture session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session ended successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Capture session not found or expired"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/kiosk/sessions/:id/frames - Process Frame
		endpoint.New(
			endpoint.POST,
			"/kiosk/sessions/{id}/frames",
			endpoint.WithTags("Kiosk"),
			endpoint.WithSummary("Process one camera frame"),
			endpoint.WithDescription("Runs one frame through liveness detection, face matching and the attendance ledger. Returns WAIT while evidence accumulates, UNKNOWN for unmatched live faces, RECOGNIZED once attendance is recorded."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Capture session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameResponse{}, "200", "Frame processed successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Capture session not found or expired"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// Enrollment endpoints

		// POST /v1/employees/:employee_id/face - Enroll Face
		endpoint.New(
			endpoint.POST,
			"/employees/{employee_id}/face",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enroll an employee's face"),
			endpoint.WithDescription("Registers a face embedding for the employee. Re-enrollment replaces the previous embedding. The photo must contain exactly one face of sufficient quality, and the face must not already be enrolled for a different employee."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentResponse{}, "201", "Face enrolled successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not enrolled"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DUPLICATE_FACE", Message: "This face is already enrolled for another employee"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected, please provide image with single face"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "LOW_QUALITY_IMAGE", Message: "Image quality too low for reliable enrollment"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// DELETE /v1/employees/:employee_id/face - Delete Enrollment
		endpoint.New(
			endpoint.DELETE,
			"/employees/{employee_id}/face",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Delete an employee's face enrollment"),
			endpoint.WithDescription("Removes the employee's face embedding and stored photo"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Enrollment deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not enrolled"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// Attendance endpoints

		// GET /v1/attendance/:employee_id/today - Today's Record
		endpoint.New(
			endpoint.GET,
			"/attendance/{employee_id}/today",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Get today's attendance record"),
			endpoint.WithDescription("Returns the employee's attendance record for the current calendar day"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("employee_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordResponse{}, "200", "Record retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_FOUND", Message: "Resource not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// Settings endpoints

		// GET /v1/settings - Current Settings
		endpoint.New(
			endpoint.GET,
			"/settings",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Get recognition settings"),
			endpoint.WithDescription("Returns the current recognition tunables"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SettingsData{}, "200", "Settings retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// PATCH /v1/settings - Update Settings
		endpoint.New(
			endpoint.PATCH,
			"/settings",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Update recognition settings"),
			endpoint.WithDescription("Applies a partial update to the recognition tunables. Changes are persisted and take effect on the next frame."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SettingsData{}, "200", "Settings updated successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_THRESHOLD", Message: "Threshold must be between 0 and 1"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}

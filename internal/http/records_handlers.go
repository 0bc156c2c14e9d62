package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"campusportal/portal/internal/api"
	"campusportal/portal/internal/role"
	"campusportal/portal/internal/stats"
)

type feesResponse struct {
	Record         api.FeeRecord  `json:"record"`
	Status         stats.FeeClass `json:"status"`
	Classification stats.FeeClass `json:"classification"`
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	record, err := s.backend.Fees(r.Context(), current.Token)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feesResponse{
		Record:         record,
		Status:         stats.FeeStatus(record.Balance),
		Classification: stats.ClassifyFee(record.Balance, record.PaymentStatus),
	})
}

type feesAnalyticsQuery struct {
	DeptID  string `validate:"omitempty,max=32"`
	Year    string `validate:"omitempty,numeric,max=4"`
	FeeType string `validate:"omitempty,max=64"`
}

func (s *Server) handleFeesAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := feesAnalyticsQuery{
		DeptID:  strings.TrimSpace(q.Get("dept_id")),
		Year:    strings.TrimSpace(q.Get("year")),
		FeeType: strings.TrimSpace(q.Get("fee_type")),
	}
	if err := s.validate.Struct(query); err != nil {
		writeInvalid(w, err)
		return
	}
	current := sessionFrom(r)
	data, err := s.backend.FeesAnalytics(r.Context(), current.Token, api.FeesFilter{
		DeptID:  query.DeptID,
		Year:    query.Year,
		FeeType: query.FeeType,
	})
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"data": rawOrNull(data)})
}

func (s *Server) handleFeesHistory(w http.ResponseWriter, r *http.Request) {
	regNo := chi.URLParam(r, "regNo")
	if err := s.validate.Var(regNo, "required,max=64"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_reg_no")
		return
	}
	current := sessionFrom(r)
	raw, err := s.backend.FeesHistory(r.Context(), current.Token, regNo)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"history": rawOrNull(raw)})
}

type feePaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (s *Server) handleFeesPayment(w http.ResponseWriter, r *http.Request) {
	regNo := chi.URLParam(r, "regNo")
	if err := s.validate.Var(regNo, "required,max=64"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_reg_no")
		return
	}
	var req feePaymentRequest
	if err := s.decodeValid(r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	current := sessionFrom(r)
	if err := s.backend.AddFeePayment(r.Context(), current.Token, regNo, req.Amount); err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"regNo": regNo, "amount": req.Amount})
}

// handleStudents lists every student, or one class when classId is given, for
// Principal and admin. Other roles only see their assigned class and get an
// empty list without one.
func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	classID := strings.TrimSpace(r.URL.Query().Get("classId"))
	if current.Role() != role.Principal && current.Role() != role.Admin {
		classID = current.Claims.AssignedClassID.String()
		if classID == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"classId": "", "students": []interface{}{}})
			return
		}
	}

	var (
		raw json.RawMessage
		err error
	)
	if classID != "" {
		raw, err = s.backend.ClassStudents(r.Context(), current.Token, classID)
	} else {
		raw, err = s.backend.Students(r.Context(), current.Token)
	}
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"classId": classID, "students": rawOrNull(raw)})
}

type studentUpdateRequest struct {
	Jain   *bool `json:"jain" validate:"required"`
	Hostel *bool `json:"hostel" validate:"required"`
	Bus    *bool `json:"bus" validate:"required"`
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	if err := s.validate.Var(studentID, "required,max=64"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}
	var req studentUpdateRequest
	if err := s.decodeValid(r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	current := sessionFrom(r)
	result, err := s.backend.UpdateStudent(r.Context(), current.Token, studentID, map[string]interface{}{
		"jain":   *req.Jain,
		"hostel": *req.Hostel,
		"bus":    *req.Bus,
	})
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	if !result.Success {
		message := result.Message
		if message == "" {
			message = "Failed to update student."
		}
		writeErrorMessage(w, http.StatusUnprocessableEntity, "update_failed", message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type messRangeQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

func (s *Server) handleMessView(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	var (
		raw json.RawMessage
		err error
	)
	switch chi.URLParam(r, "view") {
	case "history":
		raw, err = s.backend.GetRaw(r.Context(), current.Token, api.EndpointMessHistory)
	case "payments":
		raw, err = s.backend.GetRaw(r.Context(), current.Token, api.EndpointMessPayments)
	case "next-start":
		raw, err = s.backend.GetRaw(r.Context(), current.Token, api.EndpointMessNextStart)
	case "range":
		q := messRangeQuery{From: r.URL.Query().Get("from"), To: r.URL.Query().Get("to")}
		if verr := s.validate.Struct(q); verr != nil {
			writeInvalid(w, verr)
			return
		}
		if q.To < q.From {
			writeError(w, http.StatusBadRequest, "invalid_range")
			return
		}
		raw, err = s.backend.MessRange(r.Context(), current.Token, q.From, q.To)
	default:
		writeNotFound(w)
		return
	}
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rawOrNull(raw))
}

type messSaveRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	JainCount    int    `json:"jain_count" validate:"gte=0"`
	NonJainCount int    `json:"non_jain_count" validate:"gte=0"`
}

func (s *Server) handleMessSave(w http.ResponseWriter, r *http.Request) {
	var req messSaveRequest
	if err := s.decodeValid(r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	current := sessionFrom(r)
	raw, err := s.backend.MessSave(r.Context(), current.Token, map[string]interface{}{
		"date":           req.Date,
		"jain_count":     req.JainCount,
		"non_jain_count": req.NonJainCount,
		"created_by":     current.Role().String(),
	})
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rawOrNull(raw))
}

type messPaymentRequest struct {
	FromDate      string  `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate        string  `json:"to_date" validate:"required,datetime=2006-01-02"`
	TotalPlates   int     `json:"total_plates" validate:"gte=0"`
	PricePerPlate float64 `json:"price_per_plate" validate:"gt=0"`
}

func (s *Server) handleMessPayment(w http.ResponseWriter, r *http.Request) {
	var req messPaymentRequest
	if err := s.decodeValid(r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	if req.ToDate < req.FromDate {
		writeError(w, http.StatusBadRequest, "invalid_range")
		return
	}
	current := sessionFrom(r)
	raw, err := s.backend.MessPayment(r.Context(), current.Token, map[string]interface{}{
		"from_date":       req.FromDate,
		"to_date":         req.ToDate,
		"total_plates":    req.TotalPlates,
		"price_per_plate": req.PricePerPlate,
	})
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rawOrNull(raw))
}

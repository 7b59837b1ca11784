package api

import (
	"net/http"
	"path/filepath"
)

// handleBookingsReport builds an Excel report for the requested range and
// streams the file back.
func (s *Server) handleBookingsReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.bookings.GetBookingsByDateRange(r.Context(), start, end, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filePath, err := s.exporter.BookingsReport(bookings, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build bookings report")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(filePath))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ngophungianghi/careai-server/internal/booking"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

const sendTimeout = 10 * time.Second

// BookingEmailNotifier emails the clinic inbox whenever a booking is created
// or changes status. Failures are logged and swallowed; notification is
// best-effort and never blocks the booking action.
type BookingEmailNotifier struct {
	sender      EmailSender
	clinicEmail string
	logger      *logging.Logger
}

func NewBookingEmailNotifier(sender EmailSender, clinicEmail string, logger *logging.Logger) *BookingEmailNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingEmailNotifier{
		sender:      sender,
		clinicEmail: clinicEmail,
		logger:      logger,
	}
}

// BookingStatusChanged implements booking.Notifier.
func (n *BookingEmailNotifier) BookingStatusChanged(ctx context.Context, b *booking.Booking) {
	if n.sender == nil || n.clinicEmail == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg := EmailMessage{
		To:      n.clinicEmail,
		ToName:  "Lễ tân",
		Subject: subjectFor(b),
		Body:    bodyFor(b),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("booking notification failed", "booking_id", b.ID, "error", err)
	}
}

func subjectFor(b *booking.Booking) string {
	switch b.Status {
	case booking.StatusPending:
		return fmt.Sprintf("Lịch hẹn mới: %s - %s %s", b.DoctorName, b.Date, b.Time)
	case booking.StatusConfirmed:
		return fmt.Sprintf("Lịch hẹn đã xác nhận: %s %s", b.Date, b.Time)
	case booking.StatusCompleted:
		return fmt.Sprintf("Lịch hẹn đã hoàn thành: %s %s", b.Date, b.Time)
	case booking.StatusCancelled:
		return fmt.Sprintf("Lịch hẹn đã hủy: %s %s", b.Date, b.Time)
	}
	return fmt.Sprintf("Cập nhật lịch hẹn: %s %s", b.Date, b.Time)
}

func bodyFor(b *booking.Booking) string {
	body := fmt.Sprintf(
		"Bệnh nhân: %s (%s)\nBác sĩ: %s (%s)\nThời gian: %s %s\nTrạng thái: %s\n",
		b.PatientFullName, b.PatientPhone,
		b.DoctorName, b.Specialty,
		b.Date, b.Time,
		b.Status,
	)
	if b.ClinicalSummary != "" {
		body += "Tóm tắt triệu chứng: " + b.ClinicalSummary + "\n"
	}
	return body
}

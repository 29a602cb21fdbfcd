// Package report exports the agenda and the payments ledger as xlsx.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"turnero/internal/models"
)

// Store is the read surface for report generation.
type Store interface {
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	GetTreatmentsByIDs(ctx context.Context, ids []int64) ([]models.Treatment, error)
	GetPaymentsForAppointment(ctx context.Context, appointmentID int64) ([]models.Payment, error)
}

// Exporter writes agenda workbooks.
type Exporter struct {
	store Store
}

// NewExporter creates an exporter over the store.
func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// WriteAgenda writes a two-sheet workbook (agenda + payments ledger) for
// the inclusive date range [from, to].
func (e *Exporter) WriteAgenda(ctx context.Context, w io.Writer, from, to time.Time) error {
	appointments, err := e.store.ListAppointmentsBetween(ctx, models.DateOnly(from), models.DateOnly(to).Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("list appointments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Agenda")
	headers := []string{"Fecha", "Inicio", "Fin", "Cliente", "Teléfono", "Tratamientos", "Estado", "Importe", "Pagado", "Saldo"}
	if err := writeRow(f, "Agenda", 1, toAny(headers)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle("Agenda", "A1", end, style)
	}

	ledgerRow := 2
	if _, err := f.NewSheet("Pagos"); err != nil {
		return fmt.Errorf("create ledger sheet: %w", err)
	}
	if err := writeRow(f, "Pagos", 1, toAny([]string{"Fecha de pago", "Turno", "Cliente", "Método", "Importe"})); err != nil {
		return err
	}

	for i, a := range appointments {
		client, err := e.store.GetClient(ctx, a.ClientID)
		if err != nil {
			return fmt.Errorf("client %d: %w", a.ClientID, err)
		}
		treatments, err := e.store.GetTreatmentsByIDs(ctx, a.TreatmentIDs)
		if err != nil {
			return fmt.Errorf("treatments of turno %d: %w", a.ID, err)
		}
		payments, err := e.store.GetPaymentsForAppointment(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("payments of turno %d: %w", a.ID, err)
		}

		var names []string
		var charge float64
		for _, t := range treatments {
			names = append(names, t.Name)
			charge += t.Price
		}
		var paid float64
		for _, p := range payments {
			paid += p.Amount
		}

		row := []any{
			a.StartTime.Format("2006-01-02"),
			a.StartTime.Format("15:04"),
			a.EndTime.Format("15:04"),
			client.Name,
			client.Phone,
			strings.Join(names, ", "),
			a.Status,
			charge,
			paid,
			charge - paid,
		}
		if err := writeRow(f, "Agenda", i+2, row); err != nil {
			return err
		}

		for _, p := range payments {
			entry := []any{
				p.PaidAt.Format("2006-01-02 15:04"),
				a.ID,
				client.Name,
				p.Method,
				p.Amount,
			}
			if err := writeRow(f, "Pagos", ledgerRow, entry); err != nil {
				return err
			}
			ledgerRow++
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

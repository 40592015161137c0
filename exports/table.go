package exports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"

	"github.com/anjiri1684/field_booking/services"
)

// Table is a report flattened to rows for CSV and PDF output.
type Table struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
	Footer   []string
}

// CSV writes the header row, the data rows and, when set, the footer row.
func (t Table) CSV() ([]byte, error) {
	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if len(t.Footer) > 0 {
		if err := w.Write(t.Footer); err != nil {
			return nil, fmt.Errorf("write csv footer: %w", err)
		}
	}
	w.Flush()
	return b.Bytes(), w.Error()
}

var tableTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 32px; color: #222; }
h1 { font-size: 20px; margin-bottom: 4px; }
p { color: #666; margin-top: 0; }
table { border-collapse: collapse; width: 100%; font-size: 12px; }
th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
th { background: #f2f2f2; }
tfoot td { font-weight: bold; }
</style></head>
<body>
<h1>{{.Title}}</h1>
{{if .Subtitle}}<p>{{.Subtitle}}</p>{{end}}
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
{{if .Footer}}<tfoot><tr>{{range .Footer}}<td>{{.}}</td>{{end}}</tr></tfoot>{{end}}
</table>
</body></html>`))

// HTML renders the table as a standalone printable page.
func (t Table) HTML() (string, error) {
	var b bytes.Buffer
	if err := tableTmpl.Execute(&b, t); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return b.String(), nil
}

func period(p services.Period) string {
	return p.FromDate + " to " + p.ToDate
}

func BookingTable(r *services.BookingReport) Table {
	t := Table{
		Title:    "Booking Report",
		Subtitle: fmt.Sprintf("%s: %d bookings, %d completed, %d cancelled", period(r.Period), r.TotalBookings, r.CompletedBookings, r.CancelledBookings),
		Headers:  []string{"Field ID", "Field Name", "Bookings", "Hours", "Revenue"},
		Footer:   []string{"", "Total", "", "", r.TotalRevenue.StringFixed(2)},
	}
	for _, f := range r.FieldsUsage {
		t.Rows = append(t.Rows, []string{
			f.FieldID,
			f.FieldName,
			strconv.Itoa(f.BookingsCount),
			f.TotalHours.StringFixed(2),
			f.Revenue.StringFixed(2),
		})
	}
	return t
}

func RevenueTable(r *services.RevenueReport) Table {
	t := Table{
		Title:    "Revenue Report",
		Subtitle: period(r.Period) + ", grouped by " + r.GroupBy,
		Headers:  []string{"Period", "Revenue"},
		Footer:   []string{"Total", r.TotalRevenue.StringFixed(2)},
	}
	for _, p := range r.RevenueByPeriod {
		t.Rows = append(t.Rows, []string{p.Period, p.Revenue.StringFixed(2)})
	}
	return t
}

func PaymentTable(r *services.PaymentReport) Table {
	t := Table{
		Title:    "Payment Report",
		Subtitle: period(r.Period),
		Headers:  []string{"Payment ID", "Date", "Booking ID", "Method", "Transaction ID", "Amount"},
		Footer:   []string{"", "", "", "", "Total", r.TotalRevenue.StringFixed(2)},
	}
	for _, p := range r.Payments {
		txn := ""
		if p.TransactionID != nil {
			txn = *p.TransactionID
		}
		t.Rows = append(t.Rows, []string{
			p.PaymentID,
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.BookingID,
			p.Method,
			txn,
			p.Amount.StringFixed(2),
		})
	}
	return t
}

func LoyaltyTable(r *services.LoyaltyReport) Table {
	t := Table{
		Title: "Loyalty Report",
		Subtitle: fmt.Sprintf("%s: %d points issued, %d redeemed, %d active users",
			period(r.Period), r.TotalPointsIssued, r.TotalPointsRedeemed, r.ActiveUsers),
		Headers: []string{"User ID", "Full Name", "Points Earned", "Points Redeemed"},
	}
	for _, u := range r.TopUsers {
		t.Rows = append(t.Rows, []string{u.UserID, u.FullName, strconv.Itoa(u.PointsEarned), strconv.Itoa(u.PointsRedeemed)})
	}
	return t
}

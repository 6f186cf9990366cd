package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{
	"sale_id", "lead_id", "agency", "zone_key", "tier", "price_eur", "sold_at",
	"contact_name", "contact_phone", "contact_email",
}

// ExportSalesCSV streams the sales export. Contact columns are masked unless
// EXPORT_PII is enabled; the export regularly leaves the back office.
func (s *Service) ExportSalesCSV(ctx context.Context, from, to *time.Time, w io.Writer) error {
	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return err
	}

	includePII := s.cfg.GetExportPII()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, sale := range sales {
		name, phone, email := sale.ContactName, sale.ContactPhone, sale.ContactEmail
		if !includePII {
			name = maskName(name)
			phone = maskPhone(phone)
			email = maskEmail(email)
		}
		record := []string{
			sale.SaleID.String(),
			sale.LeadID.String(),
			sale.AgencyName,
			sale.ZoneKey,
			sale.Tier,
			strconv.FormatFloat(sale.PriceEUR, 'f', 2, 64),
			sale.SoldAt.UTC().Format(time.RFC3339),
			name,
			phone,
			email,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// maskName keeps the first letter of each word.
func maskName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		words[i] = string(runes[0]) + "."
	}
	return strings.Join(words, " ")
}

// maskPhone keeps the prefix and the last two digits.
func maskPhone(phone string) string {
	clean := strings.TrimSpace(phone)
	if len(clean) <= 4 {
		return strings.Repeat("*", len(clean))
	}
	return clean[:3] + "***" + clean[len(clean)-2:]
}

// maskEmail keeps the start of the local part and the full domain.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:2] + "***@" + domain
}

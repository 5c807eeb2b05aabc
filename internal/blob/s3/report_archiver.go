package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

const (
	contentTypeJSON  = "application/json"
	contentTypeJSONL = "application/x-ndjson"

	reportsRoot = "reports"

	// maxPathAttempts bounds the suffixes tried when an export lands on a
	// key that already exists.
	maxPathAttempts = 10
)

// ReportArchiver writes report exports to object storage and records each
// one in the audit log.
//
// Key layout:
//
//	reports/top-sellers/2024/03/01/20240301T101500Z.json
//	reports/transactions/2024/03/01/merchant-m1-20240301T101500Z.jsonl
type ReportArchiver struct {
	writer   domain.BlobWriter
	reader   domain.BlobReader
	audit    domain.AuditLog // optional
	partSize int64
	now      func() time.Time
}

// NewReportArchiver creates a ReportArchiver. audit may be nil.
func NewReportArchiver(writer domain.BlobWriter, reader domain.BlobReader, audit domain.AuditLog, partSize int64) *ReportArchiver {
	return &ReportArchiver{
		writer:   writer,
		reader:   reader,
		audit:    audit,
		partSize: partSize,
		now:      time.Now,
	}
}

// ArchiveTopSellers uploads the snapshot as one JSON document.
func (a *ReportArchiver) ArchiveTopSellers(ctx context.Context, report domain.TopSellersReport) (domain.ExportResult, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("s3blob: marshal top sellers report: %w", err)
	}

	at := report.GeneratedAt
	if at.IsZero() {
		at = a.now()
	}
	path, err := a.freePath(ctx, reportPath(domain.ReportTopSellers, "", at), "json")
	if err != nil {
		return domain.ExportResult{}, err
	}

	if err := a.writer.Put(ctx, path, bytes.NewReader(data), contentTypeJSON); err != nil {
		return domain.ExportResult{}, fmt.Errorf("s3blob: upload top sellers report: %w", err)
	}

	res := domain.ExportResult{Kind: domain.ReportTopSellers, Path: path, Records: len(report.Ranking.Sellers)}
	return res, a.record(ctx, res, nil)
}

// ArchiveTransactions streams txs as JSONL through a multipart upload.
func (a *ReportArchiver) ArchiveTransactions(ctx context.Context, filter domain.TransactionFilter, txs []domain.Transaction) (domain.ExportResult, error) {
	path, err := a.freePath(ctx, reportPath(domain.ReportTransactions, filterSlug(filter), a.now()), "jsonl")
	if err != nil {
		return domain.ExportResult{}, err
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeJSONL(pw, txs))
	}()

	if err := a.writer.PutMultipart(ctx, path, pr, a.partSize); err != nil {
		_ = pr.CloseWithError(err)
		return domain.ExportResult{}, fmt.Errorf("s3blob: upload transactions export: %w", err)
	}

	res := domain.ExportResult{Kind: domain.ReportTransactions, Path: path, Records: len(txs)}
	return res, a.record(ctx, res, map[string]any{"filter": filter.String()})
}

// ListReports returns stored exports of one kind in key order, which is
// also chronological.
func (a *ReportArchiver) ListReports(ctx context.Context, kind domain.ReportKind) ([]domain.BlobInfo, error) {
	infos, err := a.reader.List(ctx, reportsRoot+"/"+string(kind)+"/")
	if err != nil {
		return nil, fmt.Errorf("s3blob: list %s reports: %w", kind, err)
	}
	return infos, nil
}

// OpenReport returns the body of a stored export.
func (a *ReportArchiver) OpenReport(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, reportsRoot+"/") {
		return nil, fmt.Errorf("s3blob: %s is not a report: %w", path, domain.ErrNotFound)
	}
	return a.reader.Get(ctx, path)
}

func (a *ReportArchiver) record(ctx context.Context, res domain.ExportResult, extra map[string]any) error {
	if a.audit == nil {
		return nil
	}
	detail := map[string]any{"path": res.Path, "records": res.Records}
	for k, v := range extra {
		detail[k] = v
	}
	if err := a.audit.Log(ctx, "report."+string(res.Kind), detail); err != nil {
		return fmt.Errorf("s3blob: audit %s export: %w", res.Kind, err)
	}
	return nil
}

// freePath returns stem.ext, or stem-N.ext for the first N not yet taken.
func (a *ReportArchiver) freePath(ctx context.Context, stem, ext string) (string, error) {
	path := stem + "." + ext
	for n := 1; n <= maxPathAttempts; n++ {
		taken, err := a.reader.Exists(ctx, path)
		if err != nil {
			return "", fmt.Errorf("s3blob: check %s: %w", path, err)
		}
		if !taken {
			return path, nil
		}
		path = fmt.Sprintf("%s-%d.%s", stem, n, ext)
	}
	return "", fmt.Errorf("s3blob: no free key for %s.%s after %d attempts", stem, ext, maxPathAttempts)
}

// reportPath returns the key of an export without its extension.
func reportPath(kind domain.ReportKind, slug string, at time.Time) string {
	at = at.UTC()
	name := at.Format("20060102T150405Z")
	if slug != "" {
		name = slug + "-" + name
	}
	return fmt.Sprintf("%s/%s/%s/%s", reportsRoot, kind, at.Format("2006/01/02"), name)
}

// filterSlug turns a filter into a key-safe name fragment.
func filterSlug(f domain.TransactionFilter) string {
	slug := strings.ReplaceAll(f.String(), ":", "-")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, slug)
}

// writeJSONL encodes each record as one compact JSON line.
func writeJSONL[T any](w io.Writer, records []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return nil
}

// file: internals/features/attendance/sheets/google_store.go
package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type GoogleConfig struct {
	SpreadsheetID   string
	Tab             string // default "Absensi"
	ClientEmail     string
	PrivateKey      string
	CredentialsFile string
	Location        *time.Location
}

// GoogleStore: Store di atas Sheets API v4.
type GoogleStore struct {
	srv *sheetsapi.Service
	cfg GoogleConfig
	log *zap.Logger
}

func NewGoogleStore(ctx context.Context, cfg GoogleConfig, log *zap.Logger) (*GoogleStore, error) {
	if cfg.Tab == "" {
		cfg.Tab = "Absensi"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		jc := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{sheetsapi.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opts = append(opts, option.WithHTTPClient(jc.Client(ctx)))
	default:
		return nil, ErrSheetsDisabled
	}

	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}
	return &GoogleStore{srv: srv, cfg: cfg, log: log.Named("sheets")}, nil
}

func (s *GoogleStore) rangeAll() string { return s.cfg.Tab + "!A:J" }

func (s *GoogleStore) Append(ctx context.Context, rec Record) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{EncodeRow(rec, s.cfg.Location)}}
	_, err := s.srv.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.rangeAll(), vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		s.log.Error("❌ Gagal simpan ke Google Sheets", zap.String("nik", rec.NIK), zap.Error(err))
		return fmt.Errorf("append sheet: %w", err)
	}
	s.log.Info("📝 berhasil absen", zap.String("nama", rec.Nama), zap.String("nik", rec.NIK))
	return nil
}

func (s *GoogleStore) FetchAll(ctx context.Context) ([]Record, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.rangeAll()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get sheet: %w", err)
	}
	return DecodeRows(resp.Values, s.cfg.Location), nil
}

// UpdateRow menulis kolom D, E, H dalam satu BatchUpdate.
func (s *GoogleStore) UpdateRow(ctx context.Context, row int, upd RowUpdate) error {
	if row < 2 {
		return ErrRowNotFound
	}
	var data []*sheetsapi.ValueRange
	add := func(col string, v string) {
		if v == "" {
			return
		}
		data = append(data, &sheetsapi.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", s.cfg.Tab, col, row),
			Values: [][]interface{}{{v}},
		})
	}
	add("D", upd.JadwalMasuk)
	add("E", upd.Keterangan)
	add("H", upd.Status)
	if len(data) == 0 {
		return nil
	}

	_, err := s.srv.Spreadsheets.Values.BatchUpdate(s.cfg.SpreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet row %d: %w", row, err)
	}
	return nil
}

// DisabledStore dipakai kalau kredensial Google kosong: setiap operasi gagal terang-terangan.
type DisabledStore struct{}

func (DisabledStore) Append(context.Context, Record) error            { return ErrSheetsDisabled }
func (DisabledStore) FetchAll(context.Context) ([]Record, error)      { return nil, ErrSheetsDisabled }
func (DisabledStore) UpdateRow(context.Context, int, RowUpdate) error { return ErrSheetsDisabled }

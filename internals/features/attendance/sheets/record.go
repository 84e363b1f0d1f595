// file: internals/features/attendance/sheets/record.go
package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"absensi_bot/internals/helpers/dbtime"
)

var (
	ErrFetchFailure   = errors.New("gagal mengambil data spreadsheet")
	ErrRowNotFound    = errors.New("baris absensi tidak ditemukan")
	ErrSheetsDisabled = errors.New("integrasi Google Sheets tidak dikonfigurasi")
)

// Kolom A:J sheet Absensi.
const (
	ColWaktu = iota
	ColNIK
	ColNama
	ColJadwalMasuk
	ColKeterangan
	ColLinkFoto
	ColJamAbsen
	ColStatus
	ColUnit
	ColBulan
	NumColumns
)

// minimal sampai kolom Unit (kolom Bulan boleh kosong)
const minColumns = ColUnit + 1

// Record = satu baris absensi di spreadsheet.
type Record struct {
	Waktu       time.Time `json:"waktu"`
	NIK         string    `json:"nik"`
	Nama        string    `json:"nama"`
	JadwalMasuk string    `json:"jadwal_masuk"`
	Keterangan  string    `json:"keterangan"`
	LinkFoto    string    `json:"link_foto"`
	JamAbsen    string    `json:"jam_absen"`
	Status      string    `json:"status"`
	Unit        string    `json:"unit"`
	Bulan       string    `json:"bulan"`

	// Row: nomor baris di sheet (1-based). 0 = belum tersimpan.
	Row int `json:"row,omitempty"`
}

// DateKey tanggal kalender lokal record (YYYY-MM-DD).
func (r Record) DateKey(loc *time.Location) string {
	return dbtime.DateKey(r.Waktu, loc)
}

// RowUpdate: kolom yang boleh diubah lewat jalur edit admin (D, E, H).
type RowUpdate struct {
	JadwalMasuk string
	Keterangan  string
	Status      string
}

// Store: penyimpanan tabular (Google Sheets).
type Store interface {
	Append(ctx context.Context, rec Record) error
	FetchAll(ctx context.Context) ([]Record, error)
	UpdateRow(ctx context.Context, row int, upd RowUpdate) error
}

// ================== CODEC ==================

// EncodeRow → 10 kolom, waktu ditulis di zona loc.
func EncodeRow(r Record, loc *time.Location) []interface{} {
	return []interface{}{
		dbtime.FormatSheet(r.Waktu.In(loc)),
		r.NIK,
		r.Nama,
		r.JadwalMasuk,
		r.Keterangan,
		r.LinkFoto,
		r.JamAbsen,
		r.Status,
		r.Unit,
		r.Bulan,
	}
}

// DecodeRows: baris pertama = header. Baris pendek / tanggal rusak dilewati.
func DecodeRows(values [][]interface{}, loc *time.Location) []Record {
	out := make([]Record, 0, len(values))
	for i := 1; i < len(values); i++ {
		row := values[i]
		if len(row) < minColumns {
			continue
		}
		waktu, err := ParseWaktu(cell(row, ColWaktu), loc)
		if err != nil {
			continue
		}
		out = append(out, Record{
			Waktu:       waktu,
			NIK:         cell(row, ColNIK),
			Nama:        cell(row, ColNama),
			JadwalMasuk: cell(row, ColJadwalMasuk),
			Keterangan:  cell(row, ColKeterangan),
			LinkFoto:    cell(row, ColLinkFoto),
			JamAbsen:    cell(row, ColJamAbsen),
			Status:      cell(row, ColStatus),
			Unit:        cell(row, ColUnit),
			Bulan:       cell(row, ColBulan),
			Row:         i + 1,
		})
	}
	return out
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// DD/MM/YYYY [HH:mm[:ss]] (jam boleh pakai titik). Jangan pernah dibaca sebagai MM/DD.
var reWaktu = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(\d{1,2})[:.](\d{1,2})(?:[:.](\d{1,2}))?)?`)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseWaktu membaca kolom Waktu di zona loc.
func ParseWaktu(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := reWaktu.FindStringSubmatch(s); m != nil {
		n := make([]int, 7)
		for i := 1; i <= 6; i++ {
			if m[i] == "" {
				continue
			}
			v, err := strconv.Atoi(m[i])
			if err != nil {
				return time.Time{}, err
			}
			n[i] = v
		}
		day, month, year, hh, mm, ss := n[1], n[2], n[3], n[4], n[5], n[6]
		if month < 1 || month > 12 || day < 1 || day > 31 || hh > 23 || mm > 59 || ss > 59 {
			return time.Time{}, fmt.Errorf("waktu di luar rentang: %q", s)
		}
		t := time.Date(year, time.Month(month), day, hh, mm, ss, 0, loc)
		if t.Day() != day {
			return time.Time{}, fmt.Errorf("tanggal tidak valid: %q", s)
		}
		return t, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("format waktu tidak dikenal: %q", s)
}

// file: internals/features/bot/messages.go
package bot

import (
	"fmt"
	"strings"
	"time"

	"absensi_bot/internals/features/attendance/absensi/dto"
	"absensi_bot/internals/features/attendance/jadwal"
	"absensi_bot/internals/helpers/dbtime"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Template balasan (HTML Telegram).
const (
	MsgNoHandle        = "⚠️ <b>Tidak dapat mengidentifikasi user.</b>"
	MsgMissingPhoto    = "⚠️ <b>Absen harus menyertakan foto dengan caption sesuai jadwal.</b>"
	MsgUnknownUser     = "⚠️ <b>Username tidak terdaftar di database.</b>"
	MsgUnknownUserHint = MsgUnknownUser + "\n\nHubungi admin untuk didaftarkan."
	MsgAlreadyAttended = "⚠️ <b>Kamu sudah melakukan absen!</b>\n" +
		"Hanya diperbolehkan <b>1x absen per hari</b>, atau hubungi admin jika ada kendala yaa."
	MsgPersistence    = "❌ <b>Gagal menyimpan absensi.</b> Silakan coba lagi."
	MsgNotAttended    = "ℹ️ <b>Kamu belum melakukan absen hari ini.</b>"
	MsgRefuse         = "Aku gamau respon kamu. 😒"
	MsgEditFormat     = "⚠️ <b>Format salah!</b>\n\nFormat: <code>/editabsen @username jadwal</code>\n\nContoh:\n• /editabsen @alfiyyann pagi\n• /editabsen @alfiyyann malam"
	MsgEditNeedAt     = "⚠️ <b>Username harus diawali dengan @</b>"
	MsgEditFailed     = "❌ <b>Gagal mengupdate absensi.</b> Silakan coba lagi."
	MsgCekAbsenFailed = "❌ <b>Gagal mengecek absensi.</b> Silakan coba lagi."
	MsgBadRequest     = "⚠️ <b>Pesan absen tidak dapat diproses.</b>"
)

const keywordList = "<b>Command yang tersedia:</b>\n" +
	"DAMAN:\n• /pagi\n• /malam\n• /pagimalam\n• /piketpagi\n• /piketmalam\n\n" +
	"SDI:\n• /pagi\n• /piket\n\n"

const helpText = "📖 <b>PANDUAN BOT ABSENSI</b>\n\n" +
	"📸 <b>Cara Absen</b>\n" +
	"├ Kirim foto dengan caption command\n" +
	"└ Contoh: Foto + /pagi\n\n" +
	"📍 <b>Command DAMAN</b>\n" +
	"├ /pagi → Shift pagi\n" +
	"├ /malam → Shift malam\n" +
	"├ /pagimalam → Pagi-malam\n" +
	"├ /piketpagi → Piket pagi\n" +
	"└ /piketmalam → Piket malam\n\n" +
	"📍 <b>Command SDI</b>\n" +
	"├ /pagi → Pagi\n" +
	"└ /piket → Piket\n\n" +
	"🔍 <b>Command Lainnya</b>\n" +
	"├ /help → Panduan ini\n" +
	"└ /cekabsen → Cek absensi hari ini\n\n" +
	"⚠️ <b>Catatan</b>\n" +
	"├ Absen wajib menyertakan foto\n" +
	"├ Maksimal 1x absen per hari\n" +
	"└ Telat jika lewat batas jam masuk"

func escape(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }

func startText(firstName string) string {
	if strings.TrimSpace(firstName) == "" {
		firstName = "User"
	}
	return fmt.Sprintf("👋 Halo <b>%s</b>!\n\n"+
		"Selamat datang di <b>Bot Absensi</b>.\n\n"+
		"Ketik /help untuk melihat panduan penggunaan bot.", escape(firstName))
}

func statusEmoji(s string) string {
	if s == jadwal.StatusOntime.String() {
		return "🟢"
	}
	return "🔴"
}

func successText(res *dto.CheckInResult) string {
	st := res.Status.String()
	return fmt.Sprintf("✅ <b>Absensi Berhasil!</b>\n\n"+
		"👤 %s\n"+
		"🗓️ %s • %s WIB\n"+
		"📌 Status: %s <b>%s</b>",
		escape(res.Member.Nama),
		dbtime.FormatTanggal(res.At), dbtime.FormatJam(res.At),
		statusEmoji(st), st)
}

func invalidCommandText(unit string) string {
	return "⚠️ <b>Caption tidak sesuai dengan jadwal unit kamu.</b>\n\n" +
		"Kirim /help untuk melihat command yang tersedia untuk " + unit + "."
}

// typoText: withText=true untuk pesan teks (tanpa foto).
func typoText(sent string, withText bool) string {
	tip := "💡 <i>Pastikan penulisan command benar.</i>"
	if withText {
		tip = "💡 <i>Pastikan penulisan command benar dan sertakan foto.</i>"
	}
	return "⚠️ <b>Command tidak dikenali!</b>\n\n" +
		"Kamu mengirim: <code>" + escape(sent) + "</code>\n\n" +
		keywordList + tip
}

func detailText(v *dto.AttendanceView) string {
	return fmt.Sprintf("📋 <b>DETAIL ABSENSI</b>\n\n"+
		"👤 <b>%s</b>\n"+
		"├ %s\n"+
		"├ Jam: %s WIB\n"+
		"├ Jadwal: %s\n"+
		"├ Keterangan: %s\n"+
		"├ Unit: %s\n"+
		"└ Status: <b>%s</b>",
		escape(v.Nama),
		dbtime.FormatTanggalFull(v.Tanggal),
		v.JamAbsen, v.JadwalMasuk, v.Keterangan, v.Unit, v.Status)
}

func editSuccessText(r *dto.EditResult) string {
	return fmt.Sprintf("✅ <b>Absensi berhasil diupdate!</b>\n\n"+
		"👤 %s\n"+
		"├ Jadwal baru: %s\n"+
		"├ Keterangan: %s\n"+
		"└ Status: %s %s",
		escape(r.Nama), r.JadwalMasuk, r.Keterangan, statusEmoji(r.StatusLabel), r.StatusLabel)
}

func editUnknownUserText(handle string) string {
	return "⚠️ <b>User " + escape(handle) + " tidak ditemukan di database.</b>"
}

func editNotAttendedText(nama string) string {
	return "⚠️ <b>" + escape(nama) + " belum absen hari ini.</b>\n\nTidak ada data yang bisa diedit."
}

// editInvalidJadwalText: SDI punya daftar tetap, unit lain cukup disebut tidak ditemukan.
func editInvalidJadwalText(unit, jadwalText string, valid []string) string {
	if unit == "SDI" {
		opts := make([]string, 0, len(valid))
		for _, v := range valid {
			opts = append(opts, strings.TrimPrefix(v, "/"))
		}
		return "⚠️ <b>Jadwal tidak valid untuk SDI!</b>\n\nPilihan: " + strings.Join(opts, ", ")
	}
	return fmt.Sprintf("⚠️ <b>Jadwal \"%s\" tidak ditemukan untuk %s!</b>", escape(jadwalText), unit)
}

type statusInfo struct {
	Version string
	Started time.Time
	Now     time.Time
	Pending int
}

func botStatusText(s statusInfo) string {
	return "🤖 <b>BOT ABSENSI DAMAN & SDI</b>\n\n" +
		"📝 <b>Bot Information</b>\n" +
		"├ Name: AbsensiBot\n" +
		"├ Version: " + s.Version + "\n" +
		"├ Language: Go\n" +
		"└ Framework: telegram-bot-api + GORM\n\n" +
		"📊 <b>Server Status</b>\n" +
		"├ Status: ✅ <b>Active</b>\n" +
		"├ Uptime: " + dbtime.FormatUptime(s.Now.Sub(s.Started)) + "\n" +
		fmt.Sprintf("├ Outbox: %d pesan\n", s.Pending) +
		"├ Start: " + s.Started.Format("02/01/2006 15:04") + " WIB\n" +
		"└ Time: " + s.Now.Format("02/01/2006 15:04:05") + " WIB"
}

// file: internals/features/bot/handler.go
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"absensi_bot/internals/features/attendance/absensi/dto"
	absensiService "absensi_bot/internals/features/attendance/absensi/service"
	"absensi_bot/internals/features/attendance/jadwal"
	rekapService "absensi_bot/internals/features/attendance/rekap/service"
	"absensi_bot/internals/features/notifications/outbox"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ================== KOLABORATOR ==================

// AttendanceService dipenuhi *absensiService.Service.
type AttendanceService interface {
	CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error)
	TodayRecord(ctx context.Context, handle string) (*dto.AttendanceView, error)
	EditAttendance(ctx context.Context, actor string, req dto.EditRequest) (*dto.EditResult, error)
	Now() time.Time
}

type ReportBuilder interface {
	Build(ctx context.Context, kind rekapService.Kind) (*rekapService.Report, error)
}

// Replier dipenuhi *outbox.Notifier.
type Replier interface {
	Deliver(ctx context.Context, chatID int64, text string, mode outbox.ParseMode) error
	DeliverOrQueue(ctx context.Context, chatID int64, text string, mode outbox.ParseMode) (bool, error)
}

// KeywordSource dipenuhi *jadwal.Registry (gabungan keyword semua unit).
type KeywordSource interface {
	AllKeywords(ctx context.Context) ([]string, error)
}

type Deps struct {
	Attendance AttendanceService
	Reports    ReportBuilder
	Replies    Replier
	Keywords   KeywordSource
	Pending    func() int
	GroupID    int64
	IsAdmin    func(username string) bool
	Version    string
	StartedAt  time.Time
	Log        *zap.Logger
}

// Handler: dispatcher update Telegram → service. Tidak menyimpan state per chat.
type Handler struct {
	Deps
	log *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Pending == nil {
		d.Pending = func() int { return 0 }
	}
	if d.IsAdmin == nil {
		d.IsAdmin = func(string) bool { return false }
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = d.Attendance.Now()
	}
	return &Handler{Deps: d, log: d.Log.Named("bot")}
}

// HandleUpdate memproses satu update. Panic di handler tidak boleh mematikan loop.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("🔥 Panic saat memproses update", zap.Int("update_id", upd.UpdateID), zap.Any("panic", r))
		}
	}()

	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		if h.handleCommand(ctx, msg) {
			return
		}
	}

	if len(msg.Photo) > 0 {
		h.handlePhoto(ctx, msg)
		return
	}
	if msg.Text != "" {
		h.handleText(ctx, msg)
	}
}

// handleCommand → false kalau bukan command bot (mungkin keyword absen).
func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) bool {
	cmd := strings.ToLower(msg.Command())
	switch cmd {
	case "start":
		h.reply(ctx, msg.Chat.ID, startText(firstName(msg)))
	case "help":
		h.reply(ctx, msg.Chat.ID, helpText)
	case "cekabsen":
		h.handleCekAbsen(ctx, msg)
	case "rekapharian", "rekapmingguan", "rekapbulanan":
		kind, _ := rekapService.ParseKind(cmd)
		h.handleRekap(ctx, msg, kind)
	case "editabsen":
		h.handleEditAbsen(ctx, msg)
	case "botstatus":
		h.handleBotStatus(ctx, msg)
	default:
		return false
	}
	h.log.Info("📨 Command", zap.String("command", cmd), zap.String("username", username(msg)), zap.Int64("user_id", userID(msg)))
	return true
}

// ================== ABSEN ==================

func (h *Handler) keywords(ctx context.Context) []string {
	kws, err := h.Keywords.AllKeywords(ctx)
	if err != nil {
		h.log.Error("❌ Gagal memuat daftar keyword", zap.Error(err))
		return nil
	}
	return kws
}

// Foto: caption berisi keyword → absen; caption "/..." lain → hint typo.
func (h *Handler) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	caption := strings.TrimSpace(msg.Caption)
	if _, ok := jadwal.MatchKeyword(caption, h.keywords(ctx)); ok {
		largest := msg.Photo[len(msg.Photo)-1]
		h.checkIn(ctx, msg, caption, largest.FileID)
		return
	}
	if strings.HasPrefix(caption, "/") {
		h.reply(ctx, msg.Chat.ID, typoText(strings.ToLower(caption), false))
	}
}

// Teks: keyword tanpa foto → lewat service (identitas dicek dulu); mirip keyword → hint.
func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	kws := h.keywords(ctx)
	if _, ok := jadwal.MatchKeyword(text, kws); ok {
		h.checkIn(ctx, msg, text, "")
		return
	}
	if jadwal.LooksLikeKeyword(text, kws) {
		h.reply(ctx, msg.Chat.ID, typoText(strings.ToLower(text), true))
	}
}

func (h *Handler) checkIn(ctx context.Context, msg *tgbotapi.Message, text, fileID string) {
	res, err := h.Attendance.CheckIn(ctx, dto.CheckInRequest{
		Handle:      handleOf(msg),
		ChatID:      msg.Chat.ID,
		Text:        text,
		PhotoFileID: fileID,
		MessageID:   msg.MessageID,
	})
	if err == nil {
		// absen sudah tersimpan → balasan tidak boleh hilang
		if _, err := h.Replies.DeliverOrQueue(ctx, msg.Chat.ID, successText(res), outbox.ModeHTML); err != nil {
			h.log.Error("❌ Balasan absen gagal", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		}
		return
	}
	h.reply(ctx, msg.Chat.ID, checkInErrorText(err))
}

func checkInErrorText(err error) string {
	var inv *absensiService.InvalidJadwalError
	switch {
	case errors.Is(err, absensiService.ErrNoHandle):
		return MsgNoHandle
	case errors.Is(err, absensiService.ErrUnknownUser):
		return MsgUnknownUserHint
	case errors.Is(err, absensiService.ErrMissingPhoto):
		return MsgMissingPhoto
	case errors.As(err, &inv):
		return invalidCommandText(string(inv.Unit))
	case errors.Is(err, absensiService.ErrAlreadyAttended):
		return MsgAlreadyAttended
	case errors.Is(err, absensiService.ErrInvalidRequest):
		return MsgBadRequest
	default:
		return MsgPersistence
	}
}

// ================== CEK ABSEN ==================

func (h *Handler) handleCekAbsen(ctx context.Context, msg *tgbotapi.Message) {
	view, err := h.Attendance.TodayRecord(ctx, handleOf(msg))
	switch {
	case errors.Is(err, absensiService.ErrNoHandle):
		h.reply(ctx, msg.Chat.ID, MsgNoHandle)
	case errors.Is(err, absensiService.ErrUnknownUser):
		h.reply(ctx, msg.Chat.ID, MsgUnknownUser)
	case err != nil:
		h.log.Error("❌ Error cek absen", zap.String("username", username(msg)), zap.Error(err))
		h.reply(ctx, msg.Chat.ID, MsgCekAbsenFailed)
	case view == nil:
		h.reply(ctx, msg.Chat.ID, MsgNotAttended)
	default:
		h.reply(ctx, msg.Chat.ID, detailText(view))
	}
}

// ================== REKAP ==================

// handleRekap hanya dijawab di GROUP_ID; chat lain diabaikan.
func (h *Handler) handleRekap(ctx context.Context, msg *tgbotapi.Message, kind rekapService.Kind) {
	if h.GroupID == 0 || msg.Chat.ID != h.GroupID {
		return
	}
	rep, err := h.Reports.Build(ctx, kind)
	switch {
	case err != nil:
		h.log.Error("❌ Error getting rekap", zap.String("kind", string(kind)), zap.Error(err))
		h.replyMode(ctx, msg.Chat.ID, kind.ErrorMessage(), outbox.ModePlain)
	case rep.Empty():
		h.reply(ctx, msg.Chat.ID, kind.EmptyMessage())
	default:
		h.reply(ctx, msg.Chat.ID, rep.Text())
	}
}

// ================== ADMIN ==================

func (h *Handler) handleEditAbsen(ctx context.Context, msg *tgbotapi.Message) {
	actor := username(msg)
	if !h.IsAdmin(actor) {
		h.reply(ctx, msg.Chat.ID, MsgRefuse)
		return
	}

	parts := strings.Fields(msg.Text)
	if len(parts) < 3 {
		h.reply(ctx, msg.Chat.ID, MsgEditFormat)
		return
	}
	target, jadwalText := parts[1], strings.ToLower(parts[2])

	res, err := h.Attendance.EditAttendance(ctx, actor, dto.EditRequest{TargetHandle: target, Jadwal: jadwalText})
	var inv *absensiService.InvalidJadwalError
	switch {
	case err == nil:
		h.reply(ctx, msg.Chat.ID, editSuccessText(res))
	case errors.Is(err, absensiService.ErrNotPermitted):
		h.reply(ctx, msg.Chat.ID, MsgRefuse)
	case errors.Is(err, absensiService.ErrInvalidHandle):
		h.reply(ctx, msg.Chat.ID, MsgEditNeedAt)
	case errors.Is(err, absensiService.ErrUnknownUser):
		h.reply(ctx, msg.Chat.ID, editUnknownUserText(target))
	case errors.Is(err, absensiService.ErrNoAttendanceToday):
		nama := target
		if res != nil && res.Nama != "" {
			nama = res.Nama
		}
		h.reply(ctx, msg.Chat.ID, editNotAttendedText(nama))
	case errors.As(err, &inv):
		h.reply(ctx, msg.Chat.ID, editInvalidJadwalText(string(inv.Unit), inv.Jadwal, inv.Valid))
	default:
		h.log.Error("Error updating attendance", zap.String("target", target), zap.Error(err))
		h.reply(ctx, msg.Chat.ID, MsgEditFailed)
	}
}

func (h *Handler) handleBotStatus(ctx context.Context, msg *tgbotapi.Message) {
	if !h.IsAdmin(username(msg)) {
		h.reply(ctx, msg.Chat.ID, MsgRefuse)
		return
	}
	h.reply(ctx, msg.Chat.ID, botStatusText(statusInfo{
		Version: h.Version,
		Started: h.StartedAt,
		Now:     h.Attendance.Now(),
		Pending: h.Pending(),
	}))
}

// ================== UTIL ==================

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	h.replyMode(ctx, chatID, text, outbox.ModeHTML)
}

// replyMode: best effort, error sudah dicatat Notifier.
func (h *Handler) replyMode(ctx context.Context, chatID int64, text string, mode outbox.ParseMode) {
	_ = h.Replies.Deliver(ctx, chatID, text, mode)
}

func username(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	return msg.From.UserName
}

func userID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}

func firstName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return ""
	}
	return msg.From.FirstName
}

// handleOf: "@username" atau "" (service menolak dengan ErrNoHandle).
func handleOf(msg *tgbotapi.Message) string {
	if u := username(msg); u != "" {
		return "@" + u
	}
	return ""
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"absensi_bot/internals/features/attendance/absensi/dto"
	absensiService "absensi_bot/internals/features/attendance/absensi/service"
	"absensi_bot/internals/features/attendance/jadwal"
	rekapService "absensi_bot/internals/features/attendance/rekap/service"
	"absensi_bot/internals/features/notifications/outbox"
	memberModel "absensi_bot/internals/features/users/members/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const groupID int64 = -100200

var fixedNow = time.Date(2026, 1, 9, 7, 30, 0, 0, time.FixedZone("WIB", 7*3600))

// ================== FAKES ==================

type fakeAttendance struct {
	checkIns []dto.CheckInRequest
	checkErr error
	view     *dto.AttendanceView
	viewErr  error
	edits    []dto.EditRequest
	editRes  *dto.EditResult
	editErr  error
}

func (f *fakeAttendance) CheckIn(_ context.Context, req dto.CheckInRequest) (*dto.CheckInResult, error) {
	f.checkIns = append(f.checkIns, req)
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return &dto.CheckInResult{
		Member: memberModel.Member{Nama: "Budi", Unit: memberModel.UnitDaman},
		Status: jadwal.StatusOntime,
		At:     fixedNow,
	}, nil
}

func (f *fakeAttendance) TodayRecord(context.Context, string) (*dto.AttendanceView, error) {
	return f.view, f.viewErr
}

func (f *fakeAttendance) EditAttendance(_ context.Context, _ string, req dto.EditRequest) (*dto.EditResult, error) {
	f.edits = append(f.edits, req)
	return f.editRes, f.editErr
}

func (f *fakeAttendance) Now() time.Time { return fixedNow }

type fakeReports struct {
	calls  []rekapService.Kind
	report *rekapService.Report
	err    error
}

func (f *fakeReports) Build(_ context.Context, kind rekapService.Kind) (*rekapService.Report, error) {
	f.calls = append(f.calls, kind)
	return f.report, f.err
}

type sent struct {
	chatID int64
	text   string
	queued bool
}

type fakeReplies struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeReplies) Deliver(_ context.Context, chatID int64, text string, _ outbox.ParseMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeReplies) DeliverOrQueue(_ context.Context, chatID int64, text string, _ outbox.ParseMode) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{chatID: chatID, text: text, queued: true})
	return false, nil
}

func (f *fakeReplies) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.msgs)
	return f.msgs[len(f.msgs)-1]
}

type staticKeywords []string

func (k staticKeywords) AllKeywords(context.Context) ([]string, error) { return k, nil }

type fixture struct {
	att     *fakeAttendance
	reports *fakeReports
	replies *fakeReplies
	h       *Handler
}

func newFixture() *fixture {
	f := &fixture{
		att:     &fakeAttendance{},
		reports: &fakeReports{},
		replies: &fakeReplies{},
	}
	f.h = NewHandler(Deps{
		Attendance: f.att,
		Reports:    f.reports,
		Replies:    f.replies,
		Keywords:   staticKeywords{"/pagi", "/malam", "/pagimalam", "/piketpagi", "/piketmalam", "/piket"},
		Pending:    func() int { return 2 },
		GroupID:    groupID,
		IsAdmin:    func(u string) bool { return strings.EqualFold(u, "alfiyyann") },
		Version:    "test",
		Log:        zap.NewNop(),
	})
	return f
}

func message(chatID int64, user, text string) *tgbotapi.Message {
	m := &tgbotapi.Message{
		MessageID: 11,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, UserName: user, FirstName: "Budi"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return m
}

func photoMessage(chatID int64, user, caption string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 12,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, UserName: user},
		Caption:   caption,
		Photo: []tgbotapi.PhotoSize{
			{FileID: "kecil", Width: 90},
			{FileID: "besar", Width: 1280},
		},
	}
}

func (f *fixture) send(m *tgbotapi.Message) {
	f.h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: m})
}

// ================== ABSEN ==================

func TestPhotoWithKeywordChecksInWithLargestPhoto(t *testing.T) {
	f := newFixture()
	f.send(photoMessage(55, "budi", "/pagi"))

	require.Len(t, f.att.checkIns, 1)
	req := f.att.checkIns[0]
	assert.Equal(t, "@budi", req.Handle)
	assert.Equal(t, "besar", req.PhotoFileID)
	assert.Equal(t, "/pagi", req.Text)

	got := f.replies.last(t)
	assert.True(t, got.queued)
	assert.Contains(t, got.text, "Absensi Berhasil")
	assert.Contains(t, got.text, "Ontime")
}

func TestKeywordWithoutPhotoGoesThroughService(t *testing.T) {
	f := newFixture()
	f.att.checkErr = absensiService.ErrMissingPhoto
	f.send(message(55, "budi", "/pagi"))

	require.Len(t, f.att.checkIns, 1)
	assert.Empty(t, f.att.checkIns[0].PhotoFileID)
	assert.Equal(t, MsgMissingPhoto, f.replies.last(t).text)
}

func TestCheckInErrorReplies(t *testing.T) {
	for name, tc := range map[string]struct {
		err  error
		want string
	}{
		"no handle":  {absensiService.ErrNoHandle, MsgNoHandle},
		"unknown":    {absensiService.ErrUnknownUser, MsgUnknownUserHint},
		"duplicate":  {absensiService.ErrAlreadyAttended, MsgAlreadyAttended},
		"db down":    {errors.New("boom"), MsgPersistence},
		"bad req":    {fmt.Errorf("%w: chat_id", absensiService.ErrInvalidRequest), MsgBadRequest},
		"wrong unit": {&absensiService.InvalidJadwalError{Unit: memberModel.UnitSDI, Jadwal: "/malam"}, invalidCommandText("SDI")},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.att.checkErr = tc.err
			f.send(photoMessage(55, "budi", "/malam"))
			assert.Equal(t, tc.want, f.replies.last(t).text)
		})
	}
}

func TestTypoGetsHintWithoutCheckIn(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "/pagii"))

	assert.Empty(t, f.att.checkIns)
	got := f.replies.last(t).text
	assert.Contains(t, got, "Command tidak dikenali")
	assert.Contains(t, got, "/pagii")
	assert.Contains(t, got, "sertakan foto")
}

func TestPlainChatIsIgnored(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "selamat pagi semua"))
	f.send(photoMessage(55, "budi", "foto liburan"))

	assert.Empty(t, f.att.checkIns)
	assert.Empty(t, f.replies.msgs)
}

// ================== COMMANDS ==================

func TestStartAndHelp(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "/start"))
	assert.Contains(t, f.replies.last(t).text, "Halo <b>Budi</b>")

	f.send(message(55, "budi", "/help@AbsensiBot"))
	assert.Equal(t, helpText, f.replies.last(t).text)
}

func TestCekAbsen(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "/cekabsen"))
	assert.Equal(t, MsgNotAttended, f.replies.last(t).text)

	f.att.view = &dto.AttendanceView{Nama: "Budi", Tanggal: fixedNow, JamAbsen: "07:30", JadwalMasuk: "08:00", Unit: "Daman", Status: "Ontime"}
	f.send(message(55, "budi", "/cekabsen"))
	assert.Contains(t, f.replies.last(t).text, "DETAIL ABSENSI")

	f.att.viewErr = absensiService.ErrUnknownUser
	f.send(message(55, "budi", "/cekabsen"))
	assert.Equal(t, MsgUnknownUser, f.replies.last(t).text)
}

func TestRekapOnlyAnsweredInGroup(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "/rekapharian"))
	assert.Empty(t, f.reports.calls)
	assert.Empty(t, f.replies.msgs)

	f.reports.report = &rekapService.Report{Kind: rekapService.KindHarian}
	f.send(message(groupID, "budi", "/rekapharian"))
	require.Equal(t, []rekapService.Kind{rekapService.KindHarian}, f.reports.calls)
	assert.Equal(t, rekapService.KindHarian.EmptyMessage(), f.replies.last(t).text)

	f.reports.err = errors.New("sheet down")
	f.send(message(groupID, "budi", "/rekapmingguan"))
	assert.Equal(t, rekapService.KindMingguan.ErrorMessage(), f.replies.last(t).text)
}

func TestEditAbsenRequiresAdmin(t *testing.T) {
	f := newFixture()
	f.send(message(55, "budi", "/editabsen @andi pagi"))
	assert.Empty(t, f.att.edits)
	assert.Equal(t, MsgRefuse, f.replies.last(t).text)
}

func TestEditAbsenReplies(t *testing.T) {
	f := newFixture()
	f.send(message(55, "alfiyyann", "/editabsen @andi"))
	assert.Equal(t, MsgEditFormat, f.replies.last(t).text)

	f.att.editErr = absensiService.ErrNoAttendanceToday
	f.att.editRes = &dto.EditResult{Nama: "Andi Saputra", Unit: "Daman"}
	f.send(message(55, "alfiyyann", "/editabsen @andi PAGI"))
	require.Len(t, f.att.edits, 1)
	assert.Equal(t, dto.EditRequest{TargetHandle: "@andi", Jadwal: "pagi"}, f.att.edits[0])
	assert.Equal(t, editNotAttendedText("Andi Saputra"), f.replies.last(t).text)

	f.att.editErr = &absensiService.InvalidJadwalError{Unit: memberModel.UnitSDI, Jadwal: "malam", Valid: []string{"/pagi", "/piket"}}
	f.att.editRes = nil
	f.send(message(55, "alfiyyann", "/editabsen @sari malam"))
	assert.Equal(t, "⚠️ <b>Jadwal tidak valid untuk SDI!</b>\n\nPilihan: pagi, piket", f.replies.last(t).text)

	f.att.editErr = absensiService.ErrInvalidHandle
	f.send(message(55, "alfiyyann", "/editabsen andi pagi"))
	assert.Equal(t, MsgEditNeedAt, f.replies.last(t).text)

	f.att.editErr = nil
	f.att.editRes = &dto.EditResult{Nama: "Andi", JadwalMasuk: "08:00", Keterangan: "Pagi", StatusLabel: "Telat"}
	f.send(message(55, "alfiyyann", "/editabsen @andi pagi"))
	assert.Contains(t, f.replies.last(t).text, "🔴 Telat")
}

func TestBotStatusShowsPendingOutbox(t *testing.T) {
	f := newFixture()
	f.send(message(55, "alfiyyann", "/botstatus"))
	got := f.replies.last(t).text
	assert.Contains(t, got, "Version: test")
	assert.Contains(t, got, "Outbox: 2 pesan")
}

func TestMessageWithoutChatIsIgnored(t *testing.T) {
	f := newFixture()
	f.h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 3})
	f.h.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 4, Message: &tgbotapi.Message{Text: "/pagi"}})
	assert.Empty(t, f.replies.msgs)
}

// ================== WEBHOOK ==================

type recordingHandler struct {
	mu  sync.Mutex
	ids []int
}

func (r *recordingHandler) HandleUpdate(_ context.Context, upd tgbotapi.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, upd.UpdateID)
}

func TestWebhookChecksSecretAndQueuesUpdate(t *testing.T) {
	rec := &recordingHandler{}
	r := NewRunner(nil, rec, RunnerOptions{Workers: 1, WebhookSecret: "s3cret"}, zap.NewNop())
	r.Start(context.Background())

	app := fiber.New()
	app.Post(WebhookPath, r.WebhookHandler)

	post := func(secret, body string) int {
		req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(HeaderSecretToken, secret)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusUnauthorized, post("", `{"update_id":1}`))
	assert.Equal(t, fiber.StatusUnauthorized, post("salah", `{"update_id":1}`))
	assert.Equal(t, fiber.StatusBadRequest, post("s3cret", `{bukan json`))
	assert.Equal(t, fiber.StatusOK, post("s3cret", `{"update_id":42,"message":{"message_id":1,"chat":{"id":5},"text":"/pagi"}}`))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, []int{42}, rec.ids)
	assert.False(t, r.Enqueue(tgbotapi.Update{UpdateID: 43}))
}

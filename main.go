package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"absensi_bot/internals/middlewares/auth"
	"absensi_bot/internals/seeds"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// diisi lewat -ldflags "-X main.version=..."
var version = "dev"

var (
	tokenRole string
	tokenTTL  time.Duration

	rootCmd = &cobra.Command{
		Use:           "absensi-bot",
		Short:         "Bot Telegram absensi unit Daman & SDI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Jalankan bot, scheduler, dan HTTP server (default)",
		RunE:  runServe,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Isi shift_settings & telegram_commands (insert-if-missing)",
		RunE:  runSeed,
	}

	outboxCmd = &cobra.Command{
		Use:   "outbox",
		Short: "Kelola antrean pesan yang belum terkirim",
	}
	outboxListCmd = &cobra.Command{
		Use:   "list",
		Short: "Tampilkan isi outbox",
		RunE:  runOutboxList,
	}
	outboxDrainCmd = &cobra.Command{
		Use:   "drain",
		Short: "Kirim ulang semua pesan di outbox sekarang",
		RunE:  runOutboxDrain,
	}

	tokenCmd = &cobra.Command{
		Use:   "token @username",
		Short: "Buat JWT untuk admin API (/api/a)",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "admin | viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "masa berlaku token")

	outboxCmd.AddCommand(outboxListCmd, outboxDrainCmd)
	rootCmd.AddCommand(serveCmd, seedCmd, outboxCmd, tokenCmd)
	rootCmd.Version = version
}

func main() {
	exitOnError(rootCmd.Execute())
}

func runSeed(cmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.connectDB(); err != nil {
		return err
	}
	if s.db == nil {
		return errors.New("seed butuh database (DB_HOST & DB_NAME)")
	}
	return seeds.RunAllSeeds(s.db, s.log)
}

func runOutboxList(cmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.queue.Load(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	items := s.queue.List()
	fmt.Fprintf(out, "📬 %d pesan di %s\n", len(items), s.queue.Path())
	for _, m := range items {
		fmt.Fprintf(out, "• %s chat=%d attempts=%d created=%s\n  %s\n",
			m.ID, m.ChatID, m.Attempts, m.CreatedAt.In(s.loc).Format("02/01/2006 15:04"), preview(m.Text, 80))
	}
	return nil
}

func runOutboxDrain(cmd *cobra.Command, _ []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.queue.Load(); err != nil {
		return err
	}
	if s.queue.Size() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "📭 Outbox kosong")
		return nil
	}
	if err := s.connectTelegram(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()
	res, err := s.queue.Drain(ctx, s.tg)
	if err != nil {
		return err
	}
	s.log.Info("📤 Drain selesai",
		zap.Int("sent", res.Sent), zap.Int("requeued", res.Requeue), zap.Int("dropped", res.Dropped))
	fmt.Fprintf(cmd.OutOrStdout(), "terkirim=%d antre_lagi=%d dibuang=%d sisa=%d\n",
		res.Sent, res.Requeue, res.Dropped, s.queue.Size())
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	s, err := loadStack()
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET belum diisi")
	}
	if !s.cfg.IsAdmin(args[0]) {
		return fmt.Errorf("%s tidak ada di ADMIN_USERNAMES", args[0])
	}
	tok, err := auth.IssueAdminToken(s.cfg.AdminJWTSecret, args[0], tokenRole, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

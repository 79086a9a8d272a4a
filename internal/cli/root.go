package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"kasa-backend/internal/config"
	"kasa-backend/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// env komutlar arasında paylaşılan yapılandırma ve çıktı.
type env struct {
	cfg  *config.Config
	out  io.Writer
	open func(*config.Config) (*source, error)
}

// NewRootCmd kasactl komut ağacını kurar. Çıktı out'a yazılır, loglar stderr'e.
func NewRootCmd(out io.Writer) *cobra.Command {
	return newRootCmd(&env{out: out, open: openSource})
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "kasactl",
		Short: "Kasa servisi için yönetim aracı",
		Long: `kasactl token üretir, kurları gösterir, satış toplamlarını çevrimdışı hesaplar
ve yapılandırılmış veri kaynağı üzerinden virman yapar.

Yapılandırma sunucu ile aynı ortam değişkenlerinden okunur (.env opsiyonel).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env")
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("%s okunamadı: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load()
			}

			e.cfg = config.Load()
			return logger.Setup(logger.LogConfig{
				Level:      e.cfg.LogLevel,
				Format:     "console",
				TimeFormat: time.RFC3339,
				Output:     os.Stderr,
			})
		},
	}
	root.PersistentFlags().String("env", "", "Okunacak .env dosyası")

	root.AddCommand(
		newTokenCmd(e),
		newRatesCmd(e),
		newQuoteCmd(e),
		newTransferCmd(e),
	)
	return root
}

// Execute kasactl'ı çalıştırır ve çıkış kodunu döner.
func Execute() int {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		l := logger.WithComponent("kasactl")
		l.Error().Err(err).Msg("komut başarısız")
		fmt.Fprintf(os.Stderr, "Hata: %v\n", err)
		return 1
	}
	return 0
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

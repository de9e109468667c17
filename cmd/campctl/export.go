package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/store"
	"github.com/spiritrise/yogacamp/pkg/storage"
)

var csvHeader = []string{"id", "name", "email", "phone", "contact_key", "created_at"}

func exportCmd(a *app) *cobra.Command {
	var bucket, prefix, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every registration as CSV to S3 or a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			st, err := store.Open(ctx, a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			regs, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("list registrations: %w", err)
			}
			var buf bytes.Buffer
			if err := writeCSV(&buf, regs); err != nil {
				return err
			}

			if output != "" {
				return writeLocal(output, buf.Bytes(), cmd.OutOrStdout())
			}
			if bucket == "" {
				bucket = a.cfg.AWS.ArchiveBucket
			}
			return a.upload(ctx, bucket, prefix, &buf, len(regs), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (defaults to ARCHIVE_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", storage.FolderExports, "S3 key prefix")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of S3 (- for stdout)")
	return cmd
}

func (a *app) upload(ctx context.Context, bucket, prefix string, body io.Reader, rows int, out io.Writer) error {
	s3, err := a.s3(ctx, bucket)
	if err != nil {
		return err
	}
	key := storage.ExportKey(prefix, time.Now())
	url, err := s3.Upload(ctx, key, "text/csv", body)
	if err != nil {
		return err
	}
	a.logger.Info("export uploaded", zap.String("key", key), zap.Int("rows", rows))
	fmt.Fprintf(out, "Exported %d registrations to %s\n", rows, url)
	return nil
}

func writeLocal(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// writeCSV writes registrations oldest first, as the store returns them.
func writeCSV(w io.Writer, regs []models.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range regs {
		if err := cw.Write([]string{
			r.ID.String(), r.Name, r.Email, r.Phone, r.ContactKey, r.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiritrise/yogacamp/config"
	"github.com/spiritrise/yogacamp/internal/client"
	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/registrations"
	"github.com/spiritrise/yogacamp/internal/sinks"
	"github.com/spiritrise/yogacamp/pkg/storage"
)

func submitCmd(a *app) *cobra.Command {
	var (
		in        models.Input
		sinksPath string
		noPrompt  bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate and submit a registration to the configured sinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deliverer, err := a.broadcaster(ctx, sinksPath)
			if err != nil {
				return err
			}
			form := client.NewForm(deliverer, a.policy(), client.Links{
				ChatGroupURL:   a.cfg.Links.ChatGroupURL,
				AppDownloadURL: a.cfg.Links.AppDownloadURL,
			}, a.logger)
			return runSubmit(ctx, form, in, cmd.InOrStdin(), cmd.OutOrStdout(), noPrompt)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&sinksPath, "sinks", "", "YAML sink list (defaults to the endpoint, webhook and archive from env)")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Print next-step links instead of asking")
	return cmd
}

func runSubmit(ctx context.Context, form *client.Form, in models.Input, stdin io.Reader, out io.Writer, noPrompt bool) error {
	sub, err := form.Submit(ctx, in)
	var verr *client.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(out, "%s: %s\n", f, verr.Fields[f])
		}
		return errors.New("registration not submitted")
	case err != nil:
		return err
	}

	fmt.Fprintln(out, sub.Message)
	steps := sub.NextSteps
	prompts := map[client.Step]string{
		client.JoinChatGroup: "Join the camp chat group?",
		client.DownloadApp:   "Download the app?",
	}
	reader := bufio.NewReader(stdin)
	for steps.Current() != client.Done {
		if noPrompt {
			fmt.Fprintf(out, "%s %s\n", prompts[steps.Current()], steps.Advance())
			continue
		}
		fmt.Fprintf(out, "%s [Y/n] ", prompts[steps.Current()])
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes":
			fmt.Fprintf(out, "Open %s\n", steps.Advance())
		default:
			steps.Skip()
		}
	}
	return nil
}

func (a *app) policy() registrations.Policy {
	return registrations.Policy{
		ContactField: models.ContactField(a.cfg.Registration.ContactField),
		RequireEmail: a.cfg.Registration.RequireEmail,
		RequirePhone: a.cfg.Registration.RequirePhone,
		PhoneDigits:  a.cfg.Registration.PhoneDigits,
	}
}

// broadcaster builds the sinks from a YAML file, or from env when path is empty.
func (a *app) broadcaster(ctx context.Context, path string) (*sinks.Broadcaster, error) {
	f, err := a.sinksFile(path)
	if err != nil {
		return nil, err
	}
	built, err := f.Build(ctx, nil, a.openArchive)
	if err != nil {
		return nil, err
	}
	return sinks.NewBroadcaster(built, f.PolicyValue(), f.Timeout, nil, a.logger), nil
}

func (a *app) sinksFile(path string) (*sinks.File, error) {
	if path != "" {
		return sinks.LoadFile(path)
	}
	return defaultSinks(a.cfg), nil
}

func defaultSinks(cfg *config.Config) *sinks.File {
	f := &sinks.File{
		Policy:  string(sinks.AtLeastOne),
		Timeout: time.Duration(cfg.Delivery.SinkTimeoutSec) * time.Second,
		Sinks:   []sinks.SinkSpec{{Type: sinks.TypeEndpoint, URL: cfg.Delivery.EndpointURL}},
	}
	if cfg.Delivery.WebhookURL != "" {
		f.Sinks = append(f.Sinks, sinks.SinkSpec{Type: sinks.TypeWebhook, URL: cfg.Delivery.WebhookURL, Secret: cfg.Delivery.WebhookSecret})
	}
	if cfg.AWS.ArchiveBucket != "" {
		f.Sinks = append(f.Sinks, sinks.SinkSpec{Type: sinks.TypeArchive, Bucket: cfg.AWS.ArchiveBucket})
	}
	return f
}

func (a *app) openArchive(ctx context.Context, bucket string) (sinks.ObjectStore, error) {
	s, err := a.s3(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) s3(ctx context.Context, bucket string) (*storage.S3, error) {
	return storage.NewS3(ctx, storage.S3Config{
		Region:          a.cfg.AWS.Region,
		AccessKeyID:     a.cfg.AWS.AccessKeyID,
		SecretAccessKey: a.cfg.AWS.SecretAccessKey,
		Bucket:          bucket,
	}, a.logger)
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cstroie/XRayVision-sub000/internal/dimse"
	"github.com/cstroie/XRayVision-sub000/internal/dimse/dcmtk"
	"github.com/cstroie/XRayVision-sub000/internal/logging"
	"github.com/cstroie/XRayVision-sub000/internal/qr"
)

func newQRCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		year     int
		month    int
		day      int
		localAE  string
		peerAE   string
		peerHost string
		peerPort int
		modality string
	)

	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Query the remote archive and retrieve matching studies",
		Long: "Queries the remote archive day by day for studies of the configured\n" +
			"modality and requests each match be sent to the local receiver.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be 1-12, got %d", month)
			}
			if cmd.Flags().Changed("day") && (day < 1 || day > 31) {
				return fmt.Errorf("day must be 1-31, got %d", day)
			}

			// Flags not given on the command line fall back to the config.
			if !cmd.Flags().Changed("ae") {
				localAE = cfg.DICOM.AETitle
			}
			if !cmd.Flags().Changed("peer-ae") {
				peerAE = cfg.DICOM.PeerAETitle
			}
			if !cmd.Flags().Changed("peer-host") {
				peerHost = cfg.DICOM.PeerHost
			}
			if !cmd.Flags().Changed("peer-port") {
				peerPort = cfg.DICOM.PeerPort
			}
			if !cmd.Flags().Changed("modality") {
				modality = cfg.DICOM.Modality
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			peer := dimse.Peer{AETitle: peerAE, Host: peerHost, Port: peerPort}
			sched := qr.NewScheduler(dcmtk.NewDialer(), localAE, peer, modality, logger,
				qr.WithDelays(
					time.Duration(cfg.DICOM.MoveDelay)*time.Second,
					time.Duration(cfg.DICOM.ReleaseDelay)*time.Second,
				))

			var dayArg *int
			if cmd.Flags().Changed("day") {
				dayArg = &day
			}
			return sched.Run(ctx, year, month, dayArg)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year to query (e.g. 2025)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to query (1-12)")
	cmd.Flags().IntVar(&day, "day", 0, "Single day to query (1-31); omit for the whole month")
	cmd.Flags().StringVar(&localAE, "ae", "", "Local AE title (defaults from config)")
	cmd.Flags().StringVar(&peerAE, "peer-ae", "", "Remote AE title (defaults from config)")
	cmd.Flags().StringVar(&peerHost, "peer-host", "", "Remote host (defaults from config)")
	cmd.Flags().IntVar(&peerPort, "peer-port", 0, "Remote port (defaults from config)")
	cmd.Flags().StringVar(&modality, "modality", "", "Modality to match (defaults from config)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

// Package firmware flashes the fan controller over its RP2 mass-storage
// bootloader.
package firmware

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/fanmgr/internal/errors"
	"codeberg.org/mutker/fanmgr/internal/logger"
	"golang.org/x/sys/unix"
)

const (
	DefaultChip       = "gpiochip0"
	DefaultDiskDir    = "/dev/disk/by-id"
	DefaultDiskPrefix = "usb-RPI_RP2_"
	ImageName         = "pwm_fan.uf2"
)

type Config struct {
	// Image overrides the embedded image. FallbackImage is used when
	// neither is available.
	Image         string
	FallbackImage string

	Chip       string
	DiskDir    string
	DiskPrefix string
	MountRoot  string

	// ResetHold is how long the boot lines stay high; SettleDelay is the
	// wait for the bootloader disk to enumerate.
	ResetHold   time.Duration
	SettleDelay time.Duration
}

func DefaultConfig(image string) Config {
	return Config{
		Image:         image,
		FallbackImage: SystemImage,
		Chip:          DefaultChip,
		DiskDir:       DefaultDiskDir,
		DiskPrefix:    DefaultDiskPrefix,
		MountRoot:     os.TempDir(),
		ResetHold:     time.Second,
		SettleDelay:   3 * time.Second,
	}
}

// Resetter puts the controller into its bootloader.
type Resetter interface {
	Assert() error
	Release() error
}

type Installer struct {
	cfg      Config
	logger   logger.Logger
	resetter Resetter
	mount    func(device, dir string) error
	unmount  func(dir string) error
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	embedded []byte
}

func New(cfg Config, log logger.Logger) *Installer {
	return &Installer{
		cfg:      cfg,
		logger:   log,
		resetter: &lineResetter{chip: cfg.Chip, lines: BootLines},
		mount:    mountVFAT,
		unmount:  func(dir string) error { return unix.Unmount(dir, 0) },
		sleep:    sleep,
		now:      time.Now,
		embedded: embeddedImage,
	}
}

// Install resets the controller into its bootloader, mounts the RP2 disk and
// copies the firmware image onto it. It returns the path written.
func (i *Installer) Install(ctx context.Context) (string, error) {
	errFactory := errors.New()

	image, source, err := i.openImage()
	if err != nil {
		return "", errFactory.Wrap(ErrImageNotFound, err)
	}
	defer image.Close()
	i.logger.Info().Str("image", source).Msg("Installing firmware")

	if err := i.resetter.Assert(); err != nil {
		return "", errFactory.Wrap(ErrGPIOFailed, err)
	}
	i.logger.Info().Str("chip", i.cfg.Chip).Msg("Boot lines asserted")

	if err := i.sleep(ctx, i.cfg.ResetHold); err != nil {
		_ = i.resetter.Release()
		return "", err
	}

	if err := i.resetter.Release(); err != nil {
		return "", errFactory.Wrap(ErrGPIOFailed, err)
	}
	i.logger.Info().Msg("Boot lines released")

	if err := i.sleep(ctx, i.cfg.SettleDelay); err != nil {
		return "", err
	}

	device, err := FindDisk(i.cfg.DiskDir, i.cfg.DiskPrefix)
	if err != nil {
		return "", err
	}
	i.logger.Info().Str("device", device).Msg("Found RP2 disk")

	dir := filepath.Join(i.cfg.MountRoot, fmt.Sprintf("rp2_%d", i.now().Unix()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errFactory.Wrap(ErrMountFailed, err)
	}
	if err := i.mount(device, dir); err != nil {
		return "", errFactory.Wrap(ErrMountFailed, err)
	}
	i.logger.Info().Str("path", dir).Msg("Mounted RP2 disk")

	target := filepath.Join(dir, ImageName)
	if err := writeImage(target, image); err != nil {
		return "", errFactory.Wrap(ErrWriteFailed, err)
	}
	i.logger.Info().Str("path", target).Msg("Wrote firmware image")

	// The bootloader usually reboots and drops the disk once the image lands.
	if err := i.unmount(dir); err != nil {
		i.logger.Debug().Err(err).Str("path", dir).Msg("Unmount failed")
	}

	return target, nil
}

// FindDisk returns /dev/<name> for the first symlink in dir starting with
// prefix whose resolved target ends in "1" (the first partition).
func FindDisk(dir, prefix string) (string, error) {
	errFactory := errors.New()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errFactory.Wrap(ErrDiskNotFound, err)
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		target, err := filepath.EvalSymlinks(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if strings.HasSuffix(target, "1") {
			return "/dev/" + filepath.Base(target), nil
		}
	}

	return "", errFactory.WithData(ErrDiskNotFound, fmt.Sprintf("no %s* partition in %s", prefix, dir))
}

func writeImage(path string, image io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, image); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func mountVFAT(device, dir string) error {
	return unix.Mount(device, dir, "vfat", 0, "")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

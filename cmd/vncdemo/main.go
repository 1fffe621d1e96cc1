// Command vncdemo is a thin, non-core collaborator: it dials an RFB
// server, optionally types a string and refreshes the framebuffer, and
// writes a PNG screenshot — the "higher-level screenshot utilities" and
// "image-export convenience" spec.md places out of the core's scope.
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vncgo/rfb/rfb"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VNCDEMO")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "vncdemo",
		Short: "Connect to an RFB/VNC server, optionally type text, and save a screenshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "localhost", "RFB server host")
	flags.Int("port", 5900, "RFB server port")
	flags.String("username", "", "username, for Apple (ARD) authentication")
	flags.String("password", "", "password, for VNC authentication")
	flags.String("text", "", "text to type after connecting")
	flags.String("out", "screenshot.png", "output PNG path")
	flags.Duration("timeout", 10*time.Second, "connect timeout")

	_ = v.BindPFlag("host", flags.Lookup("host"))
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("username", flags.Lookup("username"))
	_ = v.BindPFlag("password", flags.Lookup("password"))
	_ = v.BindPFlag("text", flags.Lookup("text"))
	_ = v.BindPFlag("out", flags.Lookup("out"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))

	return cmd
}

func run(v *viper.Viper) error {
	log := logrus.WithField("component", "vncdemo")

	addr := net.JoinHostPort(v.GetString("host"), strconv.Itoa(v.GetInt("port")))
	ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
	defer cancel()

	opts := []rfb.Option{rfb.WithLogger(log)}
	if u := v.GetString("username"); u != "" {
		opts = append(opts, rfb.WithUsername(u))
	}
	if p := v.GetString("password"); p != "" {
		opts = append(opts, rfb.WithPassword(p))
	}

	session, err := rfb.Dial(ctx, addr, opts...)
	if err != nil {
		return err
	}
	defer session.Close()

	if text := v.GetString("text"); text != "" {
		if err := session.Keyboard.Write(text); err != nil {
			return err
		}
	}

	if err := session.Video.Refresh(false); err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond) // let the reader goroutine apply the update

	pix, width, height := session.Video.AsRGBA()
	img := &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}

	out, err := os.Create(v.GetString("out"))
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

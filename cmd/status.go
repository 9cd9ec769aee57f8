package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/theapemachine/atlas-demos/pkg/config"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

const connectTimeout = 15 * time.Second

var (
	stdout io.Writer = os.Stdout

	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoMark = color.New(color.FgCyan).SprintFunc()
)

func ok(format string, args ...any) {
	fmt.Fprintln(stdout, okMark("[ok]")+" "+fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	fmt.Fprintln(stdout, warnMark("[warn]")+" "+fmt.Sprintf(format, args...))
}

func info(format string, args ...any) {
	fmt.Fprintln(stdout, infoMark("[..]")+" "+fmt.Sprintf(format, args...))
}

/*
connectMongo opens the driver client for MONGODB_URI. The returned
function disconnects it.
*/
func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, func(), error) {
	client, err := mongostore.Connect(ctx, cfg.Mongo.URI, connectTimeout)

	if err != nil {
		return nil, nil, err
	}

	log.Info("connected", "uri", mongostore.Redact(cfg.Mongo.URI))

	return client, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn("disconnect failed", "error", err)
		}
	}, nil
}

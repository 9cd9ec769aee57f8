/*
Package mongo backs the store contract and the maintenance jobs with the
official MongoDB Go driver.
*/
package mongo

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

/*
Connect opens a client for uri and pings the primary, failing fast when
the cluster cannot be selected within timeout.
*/
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetAppName("atlas-demos")

	client, err := mongo.Connect(ctx, opts)

	if err != nil {
		return nil, classify("connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, classify("ping", err)
	}

	log.Debug("connected to mongodb", "uri", Redact(uri))

	return client, nil
}

/*
Redact hides the password of a connection string so it can be printed.
*/
func Redact(uri string) string {
	parsed, err := url.Parse(uri)

	if err != nil || parsed.User == nil {
		return uri
	}

	if _, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}

	return parsed.String()
}

const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeNamespaceNotFound    = 26
	codeIndexNotFound        = 27
)

/*
classify maps driver errors onto the application error kinds.
*/
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var cmdErr mongo.CommandError

	if stderrors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeUnauthorized, codeAuthenticationFailed:
			return errors.Auth(op, err)
		case codeNamespaceNotFound, codeIndexNotFound:
			return errors.NotReady(op, err)
		}
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "authentication failed"):
		return errors.Auth(op, err)
	case strings.Contains(msg, "index not found"), strings.Contains(msg, "not found"):
		return errors.NotReady(op, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), strings.Contains(msg, "server selection"):
		return errors.Transient(op, err)
	}

	return errors.New(errors.KindUnknown, op, err)
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/sirupsen/logrus"
)

const ErrCanceled = common.ConstError("interrupted")

// IsCancelled returns true if the given context's CancelFunc has been called.
// Otherwise, returns false.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Register returns a context that is canceled on SIGTERM or SIGINT, giving
// long running operations the chance to leave the database consistent.
func Register(parent context.Context, logger logrus.FieldLogger) context.Context {
	log := logging.Component(logger, "interrupt")
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.WithField("signal", sig).Warn("Closing, please wait until proper shutdown to prevent database corruption")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

// pkg/minion/authorize.go

package minion

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const (
	PrivateKeyFile = "minion.pem"
	PublicKeyFile  = "minion.pub"
)

// Authorize makes sure the master has accepted a key for id. When it has
// not, the master generates and accepts a key pair which is installed in
// the minion keys directory.
func (o *Operator) Authorize(ctx context.Context, mgr *saltapi.Manager, id string) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Authorizing minion", zap.String("minion_id", id))

	resp, accepted, err := mgr.AcceptedMinions(ctx)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return plugin_err.NewNonRecoverableError("unable to list accepted minion keys",
			cerr.New(resp.Reason()))
	}
	if slices.Contains(accepted, id) {
		logger.Info("Minion key already accepted", zap.String("minion_id", id))
		return nil
	}

	resp, keys, err := mgr.GenerateAcceptedKey(ctx, id)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return plugin_err.NewNonRecoverableError("unable to generate key for minion "+id,
			cerr.New(resp.Reason()))
	}
	logger.Info("Generated key for minion", zap.String("minion_id", id))

	if err := writeKeys(o.props.MinionKeysDir, keys); err != nil {
		return plugin_err.NewRecoverableError("unable to install minion keys", err,
			"Check that "+o.props.MinionKeysDir+" is writable by the plugin")
	}
	logger.Info("Minion authorization successful",
		zap.String("minion_id", id),
		zap.String("keys_dir", o.props.MinionKeysDir))
	return nil
}

func writeKeys(dir string, keys *saltapi.KeyPair) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return cerr.Wrapf(err, "create %s", dir)
	}
	if err := writeFileAtomic(filepath.Join(dir, PrivateKeyFile), []byte(keys.Private), 0o600); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, PublicKeyFile), []byte(keys.Public), 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return cerr.Wrapf(err, "write %s", path)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return cerr.Wrapf(err, "chmod %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return cerr.Wrapf(err, "replace %s", path)
	}
	return nil
}

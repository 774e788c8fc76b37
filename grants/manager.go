// ABOUTME: Applies permission changes to the workspace
// ABOUTME: One validated request becomes exactly one grants update call
package grants

import (
	"context"

	"github.com/harperreed/ucadmin/directory"
	"github.com/harperreed/ucadmin/models"
	"go.uber.org/zap"
)

type Manager struct {
	writer directory.Writer
	logger *zap.Logger
}

func NewManager(writer directory.Writer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{writer: writer, logger: logger.Named("grants")}
}

type Result struct {
	Request models.PermissionChangeRequest `json:"request" yaml:"request"`
	Message string                         `json:"message" yaml:"message"`
}

// Apply validates r and submits it. Validation failures never reach the workspace;
// workspace failures come back as *directory.RemoteOperationError.
func (m *Manager) Apply(ctx context.Context, r Request) (Result, error) {
	req, err := Build(r)
	if err != nil {
		m.logger.Debug("rejected permission change", zap.Error(err))
		return Result{}, err
	}
	return m.Submit(ctx, req)
}

// Submit sends an already-built request.
func (m *Manager) Submit(ctx context.Context, req models.PermissionChangeRequest) (Result, error) {
	if err := m.writer.UpdateGrants(ctx, req.SecurableType, req.FullName, req.Changes()); err != nil {
		return Result{Request: req}, err
	}

	msg := req.Describe()
	m.logger.Info(msg,
		zap.String("principal", req.Principal),
		zap.String("privilege", string(req.Privilege)),
		zap.String("action", string(req.Action)),
	)
	return Result{Request: req, Message: msg}, nil
}

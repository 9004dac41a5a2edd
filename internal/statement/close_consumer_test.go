package statement

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/tollhub/pipeline/internal/model"
	"github.com/tollhub/pipeline/internal/platform/bus"
	"github.com/tollhub/pipeline/internal/statement/mocks"
)

func generateRequestMsg(t *testing.T, req GenerateRequest) *nats.Msg {
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return &nats.Msg{Data: data}
}

func TestCloseHandler_Handle_UnmarshalFailureIsPoisonPill(t *testing.T) {
	h := &CloseHandler{store: mocks.NewMockCloseStore(gomock.NewController(t)), log: zaptest.NewLogger(t)}

	err := h.handle(context.Background(), &nats.Msg{Data: []byte("not json")})
	require.Error(t, err)
	var poison *bus.PoisonPillError
	assert.ErrorAs(t, err, &poison)
}

func TestCloseHandler_Handle_AlreadyClosedIsSkippedSilently(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCloseStore(ctrl)
	store.EXPECT().CloseDraft(gomock.Any(), "user-1", gomock.Any()).Return(model.Statement{}, model.ErrDuplicate)

	h := &CloseHandler{store: store, log: zaptest.NewLogger(t)}
	req := GenerateRequest{UserID: "user-1", PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	err := h.handle(context.Background(), generateRequestMsg(t, req))
	require.NoError(t, err)
}

func TestCloseHandler_Handle_CloseDraftErrorPropagatesForRedelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCloseStore(ctrl)
	store.EXPECT().CloseDraft(gomock.Any(), "user-1", gomock.Any()).Return(model.Statement{}, model.ErrTransient)

	h := &CloseHandler{store: store, log: zaptest.NewLogger(t)}
	req := GenerateRequest{UserID: "user-1", PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	err := h.handle(context.Background(), generateRequestMsg(t, req))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransient)
}

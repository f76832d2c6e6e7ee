package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wattcast/wattcast/pkg/types"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, series types.Series, horizon int) (types.Forecast, error) {
	args := m.Called(ctx, series, horizon)
	if len(args) > 0 {
		return args.Get(0).(types.Forecast), args.Error(1)
	}
	return types.Forecast{}, nil
}

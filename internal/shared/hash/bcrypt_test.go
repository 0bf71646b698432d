package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNew_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "default strategy", opts: Options{}},
		{name: "bcrypt min cost", opts: Options{Strategy: StrategyBcrypt, Cost: bcrypt.MinCost}},
		{name: "cost too low", opts: Options{Strategy: StrategyBcrypt, Cost: 2}, wantErr: true},
		{name: "cost too high", opts: Options{Strategy: StrategyBcrypt, Cost: 40}, wantErr: true},
		{name: "unknown strategy", opts: Options{Strategy: "argon2"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hasher, err := New(tc.opts)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, hasher)
		})
	}
}

func TestBcrypt_HashCompare(t *testing.T) {
	ctx := context.Background()
	hasher, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	hashed, err := hasher.Hash(ctx, "app-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "app-secret", hashed)

	assert.NoError(t, hasher.Compare(ctx, hashed, "app-secret"))
	assert.ErrorIs(t, hasher.Compare(ctx, hashed, "wrong-secret"), ErrMismatch)

	err = hasher.Compare(ctx, "not-a-bcrypt-hash", "app-secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestBcrypt_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hasher, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	_, err = hasher.Hash(ctx, "app-secret")
	assert.ErrorIs(t, err, context.Canceled)
}

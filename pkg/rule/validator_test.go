package rule_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/rule"
)

type uploadForm struct {
	ID        string `rule:"required,asset_id"`
	AssetType string `rule:"required,asset_type"`
	Page      int    `rule:"omitempty,min=1"`
}

func TestEngineShared(t *testing.T) {
	require.NotNil(t, rule.Engine())
	require.Same(t, rule.Engine(), rule.Engine())
}

func TestAssetIDRule(t *testing.T) {
	valid := []string{"m-test-slime", "boss_king", "map01", "a"}
	for _, id := range valid {
		require.True(t, rule.IsAssetID(id), id)
		require.NoError(t, rule.ValidateVar(id, "asset_id"), id)
	}

	invalid := []string{"", "M-Slime", "slime.png", "../etc", "has space", "中文"}
	for _, id := range invalid {
		require.False(t, rule.IsAssetID(id), id)
		require.Error(t, rule.ValidateVar(id, "asset_id"), id)
	}
}

func TestValidateStruct_Errors(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(uploadForm{ID: "m-slime", AssetType: "monster"}))

	err := rule.ValidateStruct(uploadForm{ID: "Bad ID", AssetType: "weapon", Page: -1})
	require.Error(t, err)

	fields := rule.Errors(err)
	require.Len(t, fields, 3)
	require.Equal(t, "asset_id", fields["ID"])
	require.Equal(t, "min=1", fields["Page"])
	require.Contains(t, fields["AssetType"], "asset_type")
	require.Contains(t, fields.String(), "ID: asset_id; Page: min=1")
}

func TestErrors_NonValidation(t *testing.T) {
	require.Nil(t, rule.Errors(nil))
	require.Nil(t, rule.Errors(errors.New("boom")))
}

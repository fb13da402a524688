package inventory

import (
	"encoding/json"
	"testing"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductValidate(t *testing.T) {
	assert.NoError(t, (&Product{Name: "กล้วยตาก", Price: 35, Stock: 0}).Validate())
	assert.True(t, apperror.Is((&Product{Name: "  "}).Validate(), apperror.KindValidation))
	assert.True(t, apperror.Is((&Product{Name: "x", Stock: -1}).Validate(), apperror.KindValidation))
}

func TestProductPatchUpdates(t *testing.T) {
	var p ProductPatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":" ทุเรียนทอด ","category":null,"stock":12,"featured":false}`), &p))
	require.NoError(t, p.Validate())

	set, unset := p.Updates()
	assert.Equal(t, map[string]any{"name": "ทุเรียนทอด", "stock": 12, "featured": false}, set)
	assert.Equal(t, map[string]any{"category": ""}, unset)
}

func TestProductPatchRejectsNegativeStock(t *testing.T) {
	var p ProductPatch
	require.NoError(t, json.Unmarshal([]byte(`{"stock":-3}`), &p))
	assert.True(t, apperror.Is(p.Validate(), apperror.KindValidation))
}

func TestProductFilterNormalize(t *testing.T) {
	f := ProductFilter{Page: 0, PerPage: 1000}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PerPage)
}

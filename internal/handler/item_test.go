package handler

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/deppfellow/go-items/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemID(t *testing.T) {
	id, err := parseItemID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-1", "4.2", "9223372036854775808"} {
		_, err := parseItemID(raw)

		var custom validation.CustomValidationErrors
		require.ErrorAs(t, err, &custom, raw)
		assert.Equal(t, "id", custom[0].Field)
	}
}

func TestCreateItemRequestValidate(t *testing.T) {
	assert.NoError(t, (&CreateItemRequest{Name: "Widget"}).Validate())
	assert.Error(t, (&CreateItemRequest{}).Validate())
	assert.Error(t, (&CreateItemRequest{Name: strings.Repeat("x", maxNameLength+1)}).Validate())

	description := "has\x00nul"
	for field, req := range map[string]*CreateItemRequest{
		"name":        {Name: "Wid\x00get"},
		"description": {Name: "Widget", Description: &description},
	} {
		var custom validation.CustomValidationErrors
		require.ErrorAs(t, req.Validate(), &custom, field)
		assert.Equal(t, field, custom[0].Field)
	}
}

func TestUpdateItemRequestValidate(t *testing.T) {
	decodeUpdate := func(body string) *UpdateItemRequest {
		req := &UpdateItemRequest{RawID: "1"}
		require.NoError(t, json.Unmarshal([]byte(body), req))
		return req
	}

	req := decodeUpdate(`{"description":"Updated"}`)
	require.NoError(t, req.Validate())
	assert.Equal(t, int64(1), req.id)
	assert.False(t, req.Patch().Name.Set)
	assert.True(t, req.Patch().Description.Set)

	req = decodeUpdate(`{}`)
	require.NoError(t, req.Validate())
	assert.True(t, req.Patch().Empty())

	assert.Error(t, decodeUpdate(`{"name":null}`).Validate())
	assert.Error(t, decodeUpdate(`{"name":""}`).Validate())
	assert.Error(t, decodeUpdate(`{"name":"`+strings.Repeat("é", maxNameLength+1)+`"}`).Validate())
	assert.NoError(t, decodeUpdate(`{"name":"`+strings.Repeat("é", maxNameLength)+`"}`).Validate())
	assert.Error(t, decodeUpdate(`{"name":"Wid\u0000get"}`).Validate())
	assert.Error(t, decodeUpdate(`{"description":"has\u0000nul"}`).Validate())

	req = decodeUpdate(`{"description":null}`)
	require.NoError(t, req.Validate())
	assert.True(t, req.Patch().Description.Null)
	assert.Nil(t, req.Patch().Description.Ptr())
}

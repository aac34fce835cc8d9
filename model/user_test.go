package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUnmarshal_ServerVariants(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    User
	}{
		{
			name:    "snake case admin flag",
			payload: `{"id":1,"full_name":"Budi","email":"budi@example.com","is_admin":true,"avatar_url":"/uploads/b.png"}`,
			want:    User{Id: 1, Name: "Budi", Email: "budi@example.com", Role: RoleAdmin, Avatar: "/uploads/b.png"},
		},
		{
			name:    "pascal case flag",
			payload: `{"id":2,"name":"Ayu","IsAdmin":false}`,
			want:    User{Id: 2, Name: "Ayu", Role: RoleUser},
		},
		{
			name:    "camel case flag",
			payload: `{"id":3,"name":"Sari","isAdmin":true}`,
			want:    User{Id: 3, Name: "Sari", Role: RoleAdmin},
		},
		{
			name:    "explicit role wins",
			payload: `{"id":4,"name":"Dewi","role":"user","is_admin":true}`,
			want:    User{Id: 4, Name: "Dewi", Role: RoleUser},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got User
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUserUnmarshal_ReadsItsOwnEncoding(t *testing.T) {
	user := User{Id: 9, Name: "Rina", Email: "rina@example.com", Role: RoleAdmin, Avatar: "/a.png"}
	payload, err := json.Marshal(user)
	require.NoError(t, err)

	var got User
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, user.Name, got.Name)
	assert.True(t, got.IsAdmin())
	assert.Equal(t, "/a.png", got.Avatar)
}

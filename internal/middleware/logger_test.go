package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestIdentityFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Empty(t, identityFields(c), "anonymous requests log no identity")

	c.Set(CtxGrantIDKey, "grant-1")
	c.Set(CtxClientIDKey, "client-1")

	fields := identityFields(c)
	require.Len(t, fields, 2)
	require.Equal(t, "grant_id", fields[0].Key)
	require.Equal(t, "grant-1", fields[0].String)
	require.Equal(t, "client_id", fields[1].Key)
	require.Equal(t, "client-1", fields[1].String)
}

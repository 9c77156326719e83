package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonightapp/tonight/server/store/kvstore"
	"github.com/tonightapp/tonight/server/utils/testutils"
)

// setupKVStore returns a KV store on an in-memory plugin API.
func setupKVStore(t *testing.T) (*kvstore.Store, *testutils.MemoryAPI) {
	api := testutils.NewMemoryAPI()
	s, err := kvstore.NewStore(api, "1.0.0", kvstore.ChatConfig{
		BotUserID: testutils.GetBotUserID(),
		PluginID:  "com.github.tonightapp.tonight",
		SiteURL:   testutils.GetSiteURL(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, api
}

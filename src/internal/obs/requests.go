package obs

import (
	"context"
	"fmt"

	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"go.uber.org/zap"
)

const (
	keyVideoSettings = "obs/videoSettings"
)

func sceneItemKey(sceneName, sourceName string) string {
	return fmt.Sprintf("obs/sceneItemId/%s/%s", sceneName, sourceName)
}

func (c *Client) SourceFilterList(ctx context.Context, sourceName string) ([]Filter, error) {
	data, err := c.call(ctx, "GetSourceFilterList", map[string]interface{}{
		"sourceName": sourceName,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Filters []Filter `json:"filters"`
	}
	if err := decode(data, &resp); err != nil {
		return nil, custerror.FormatInternalError("GetSourceFilterList: decode: %s", err)
	}
	return resp.Filters, nil
}

func (c *Client) SceneItemId(ctx context.Context, sceneName, sourceName string) (int, error) {
	key := sceneItemKey(sceneName, sourceName)
	if c.options.cache != nil {
		if v, found := c.options.cache.Get(key); found {
			if id, ok := v.(int); ok {
				return id, nil
			}
		}
	}

	data, err := c.call(ctx, "GetSceneItemId", map[string]interface{}{
		"sceneName":  sceneName,
		"sourceName": sourceName,
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		SceneItemId int `json:"sceneItemId"`
	}
	if err := decode(data, &resp); err != nil {
		return 0, custerror.FormatInternalError("GetSceneItemId: decode: %s", err)
	}

	if c.options.cache != nil {
		c.options.cache.SetWithTTL(key, resp.SceneItemId, 1, c.options.configs.CacheTtl)
	}
	return resp.SceneItemId, nil
}

func (c *Client) SceneItemTransform(ctx context.Context, sceneName, sourceName string) (*SceneItemTransform, error) {
	sceneItemId, err := c.SceneItemId(ctx, sceneName, sourceName)
	if err != nil {
		return nil, err
	}

	data, err := c.call(ctx, "GetSceneItemTransform", map[string]interface{}{
		"sceneName":   sceneName,
		"sceneItemId": sceneItemId,
	})
	if err != nil {
		if c.options.cache != nil {
			c.options.cache.Del(sceneItemKey(sceneName, sourceName))
		}
		return nil, err
	}

	var resp struct {
		SceneItemTransform SceneItemTransform `json:"sceneItemTransform"`
	}
	if err := decode(data, &resp); err != nil {
		return nil, custerror.FormatInternalError("GetSceneItemTransform: decode: %s", err)
	}
	return &resp.SceneItemTransform, nil
}

func (c *Client) VideoSettings(ctx context.Context) (*VideoSettings, error) {
	if c.options.cache != nil {
		if v, found := c.options.cache.Get(keyVideoSettings); found {
			if settings, ok := v.(*VideoSettings); ok {
				return settings, nil
			}
		}
	}

	data, err := c.call(ctx, "GetVideoSettings", nil)
	if err != nil {
		return nil, err
	}

	var settings VideoSettings
	if err := decode(data, &settings); err != nil {
		return nil, custerror.FormatInternalError("GetVideoSettings: decode: %s", err)
	}

	if c.options.cache != nil {
		c.options.cache.SetWithTTL(keyVideoSettings, &settings, 1, c.options.configs.CacheTtl)
	}
	return &settings, nil
}

func filterEnabledRequest(sourceName, filterName string, enabled bool) request {
	return request{
		RequestType: "SetSourceFilterEnabled",
		RequestData: map[string]interface{}{
			"sourceName":    sourceName,
			"filterName":    filterName,
			"filterEnabled": enabled,
		},
	}
}

// SetSourceFilterSettings merges settings into the filter's current settings.
func (c *Client) SetSourceFilterSettings(ctx context.Context, sourceName, filterName string, settings map[string]interface{}) error {
	_, err := c.call(ctx, "SetSourceFilterSettings", map[string]interface{}{
		"sourceName":     sourceName,
		"filterName":     filterName,
		"filterSettings": settings,
		"overlay":        true,
	})
	return err
}

// SetSourceFilterExclusive disables every sibling and then enables filterName,
// all inside one request batch.
func (c *Client) SetSourceFilterExclusive(ctx context.Context, sourceName, filterName string, siblings []string) error {
	requests := make([]request, 0, len(siblings)+1)
	for _, sibling := range siblings {
		if sibling == filterName {
			continue
		}
		requests = append(requests, filterEnabledRequest(sourceName, sibling, false))
	}
	requests = append(requests, filterEnabledRequest(sourceName, filterName, true))

	logger.SDebug("obs.SetSourceFilterExclusive",
		zap.String("sourceName", sourceName),
		zap.String("filterName", filterName),
		zap.Int("requests", len(requests)))
	return c.callBatch(ctx, requests, false)
}

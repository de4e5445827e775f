// internal/service/order/infrastructure/adapter/inventory_http_adapter.go
package adapter

import (
	"context"

	"ordercore/internal/pkg/httpclient"
	"ordercore/internal/service/order/domain"
)

// InventoryHTTPAdapter 实现了 port.InventoryAuthority 接口。
// 失败和超时原样上抛，由编排器按非对称策略兜底。
type InventoryHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewInventoryHTTPAdapter 创建库存校验服务的适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client, baseURL string) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, baseURL: baseURL}
}

type availabilityItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type availabilityRequest struct {
	Items []availabilityItem `json:"items"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// CheckAvailability 查询给定条目的库存是否充足。
func (a *InventoryHTTPAdapter) CheckAvailability(ctx context.Context, items []domain.CommandItem) (bool, error) {
	req := availabilityRequest{Items: make([]availabilityItem, 0, len(items))}
	for _, it := range items {
		req.Items = append(req.Items, availabilityItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	var resp availabilityResponse
	if err := a.client.PostJSON(ctx, a.baseURL+"/api/inventory/check", req, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

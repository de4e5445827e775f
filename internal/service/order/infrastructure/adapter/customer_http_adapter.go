// internal/service/order/infrastructure/adapter/customer_http_adapter.go
package adapter

import (
	"context"

	"ordercore/internal/pkg/httpclient"
)

// CustomerHTTPAdapter 实现了 port.CustomerAuthority 接口。
type CustomerHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewCustomerHTTPAdapter 创建客户校验服务的适配器。
func NewCustomerHTTPAdapter(client *httpclient.Client, baseURL string) *CustomerHTTPAdapter {
	return &CustomerHTTPAdapter{client: client, baseURL: baseURL}
}

type customerValidationRequest struct {
	CustomerID string `json:"customerId"`
}

type validationResponse struct {
	Valid bool `json:"valid"`
}

// ValidateCustomer 核实客户是否合法有效。
func (a *CustomerHTTPAdapter) ValidateCustomer(ctx context.Context, customerID string) (bool, error) {
	var resp validationResponse
	err := a.client.PostJSON(ctx, a.baseURL+"/api/customers/validate",
		customerValidationRequest{CustomerID: customerID}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

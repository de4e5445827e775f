// internal/service/order/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"

	"ordercore/internal/pkg/httpclient"
)

// PaymentHTTPAdapter 实现了 port.PaymentAuthority 接口。
type PaymentHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewPaymentHTTPAdapter 创建支付方式校验服务的适配器。
func NewPaymentHTTPAdapter(client *httpclient.Client, baseURL string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client, baseURL: baseURL}
}

type paymentValidationRequest struct {
	CustomerID      string `json:"customerId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// ValidatePaymentMethod 核实支付方式是否属于该客户且可用。
func (a *PaymentHTTPAdapter) ValidatePaymentMethod(ctx context.Context, customerID, paymentMethodID string) (bool, error) {
	var resp validationResponse
	err := a.client.PostJSON(ctx, a.baseURL+"/api/payments/validate",
		paymentValidationRequest{CustomerID: customerID, PaymentMethodID: paymentMethodID}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

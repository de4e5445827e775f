// internal/service/order/domain/result.go
package domain

// ValidationVerdict 是校验编排器产出的聚合结论。
// 结论一经产出不再修改；Errors 为空即视为通过。
type ValidationVerdict struct {
	Errors []string
}

// Valid 报告本次校验是否全部通过。
func (v ValidationVerdict) Valid() bool {
	return len(v.Errors) == 0
}

// OrderResult 是创建订单管线对外可观察的唯一结果类型。
// 所有失败路径（校验、冲突、完整性、超时、熔断）都必须收敛到这里，
// 而不是以 panic 或裸 error 的方式泄漏给调用方。
// 该类型同时是幂等缓存的载荷，因此需要可 JSON 序列化。
//
// Fault 区分故障和业务拒绝：校验不通过是管线的正常完成，
// 只有基础设施层面的故障（超时、持久化失败、构造失败）才置位。
// 熔断器只统计 Fault，一波用户侧的无效请求不会让熔断打开。
type OrderResult struct {
	Success      bool   `json:"success"`
	Order        *Order `json:"order,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Fault        bool   `json:"-"`
}

// SuccessResult 构造一个成功结果。
func SuccessResult(order *Order) OrderResult {
	return OrderResult{Success: true, Order: order}
}

// FailureResult 构造一个业务拒绝结果（如校验不通过）。
func FailureResult(message string) OrderResult {
	return OrderResult{Success: false, ErrorMessage: message}
}

// FaultResult 构造一个基础设施故障结果，会计入熔断统计。
func FaultResult(message string) OrderResult {
	return OrderResult{Success: false, ErrorMessage: message, Fault: true}
}

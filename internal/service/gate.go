package service

import (
	"errors"
	"fmt"

	"github.com/sshcollectorpro/consoleprov/internal/model"
)

var (
	// ErrNoIdentity 设备未报告序列号
	ErrNoIdentity = errors.New("device reported no serial number")
	// ErrIdentityMismatch 设备序列号与记录不一致
	ErrIdentityMismatch = errors.New("device serial does not match record")
)

// Gate 身份校验：主机名去掉首字符后须与设备序列号（按策略截取）一致
type Gate struct {
	policy string
}

// NewGate 创建校验器，未知策略按 full 处理
func NewGate(policy string) *Gate {
	if policy != model.MatchPolicyPrefix6 {
		policy = model.MatchPolicyFull
	}
	return &Gate{policy: policy}
}

// Policy 当前比对策略
func (g *Gate) Policy() string { return g.policy }

// Verify 仅在序列号有效且与主机名嵌入部分一致时返回 true
func (g *Gate) Verify(expectedHostname, extractedSerial string) bool {
	return g.Check(expectedHostname, extractedSerial) == nil
}

// Check 与 Verify 相同，但给出拒绝原因
func (g *Gate) Check(expectedHostname, extractedSerial string) error {
	if extractedSerial == "" || extractedSerial == model.UnknownSerial {
		return ErrNoIdentity
	}
	want := model.HostnameSerialPart(expectedHostname)
	got := model.SerialKey(extractedSerial, g.policy)
	if want == "" || want != got {
		return fmt.Errorf("%w: hostname %q expects %q, device reports %q", ErrIdentityMismatch, expectedHostname, want, extractedSerial)
	}
	return nil
}

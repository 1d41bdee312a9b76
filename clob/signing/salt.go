package signing

import (
	"crypto/rand"
	"math/big"

	"github.com/betcli/gotrade/clob/types"
)

// SaltSource 盐值来源。生产环境使用 RandomSalt；
// 测试可注入确定性来源以断言结构正确性。
type SaltSource func() (*big.Int, error)

// saltBits 盐值熵宽度。128 位保证两笔经济条款完全相同的订单
// 在交易所的订单哈希索引中不会发生碰撞（防止重复提交/重放）。
const saltBits = 128

var saltMax = new(big.Int).Lsh(big.NewInt(1), saltBits)

// RandomSalt 从密码学安全随机源生成盐值
func RandomSalt() (*big.Int, error) {
	salt, err := rand.Int(rand.Reader, saltMax)
	if err != nil {
		return nil, types.ErrSigningFailure.WithField("salt").WithCause(err)
	}
	return salt, nil
}

package data

import (
	"context"
	"log"
	"strings"

	"github.com/itering/substrate-api-rpc/client"
	"github.com/itering/substrate-api-rpc/expand"
	"github.com/redis/go-redis/v9"
)

// StartSettlementWatcher subscribes to new chain heads and confirms anchor
// references out-of-band. Any system.remark whose payload matches a
// fingerprint reference marks that reference settled, independent of the
// gateway's own confirmation path.
func StartSettlementWatcher(ctx context.Context, rpcURL string, rdb *redis.Client) {
	api, err := client.ConnectSub(rpcURL)
	if err != nil {
		log.Printf("settlement watcher connect: %v", err)
		return
	}

	sub, err := api.RPC.Chain.SubscribeNewHeads()
	if err != nil {
		log.Printf("settlement watcher head sub: %v", err)
		return
	}

	go func() {
		for {
			select {
			case head := <-sub.Chan():
				hash := head.Hash()
				block, err := api.RPC.Chain.GetBlock(hash)
				if err != nil {
					continue
				}

				for _, ext := range block.Block.Extrinsics {
					remarkBytes, err := expand.DecodeRemark(ext.Method.Args)
					if err != nil || len(remarkBytes) == 0 {
						continue
					}
					ref := strings.TrimSpace(string(remarkBytes))
					// anchor remarks carry a 0x-prefixed 32-byte fingerprint
					if !strings.HasPrefix(ref, "0x") || len(ref) != 66 {
						continue
					}
					if err := ConfirmAnchor(ctx, rdb, ref); err != nil {
						log.Printf("settlement watcher confirm %s: %v", ref, err)
					}
				}

			case <-ctx.Done():
				sub.Unsubscribe()
				return
			}
		}
	}()
}

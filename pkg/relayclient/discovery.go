package relayclient

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/relaykit/relayctl/pkg/relaying"
)

const relayRegisteredEvent = "RelayServerRegistered"

var relayHubABI = mustParseABI(relaying.RelayHubABI)

type registration struct {
	manager  common.Address
	url      string
	block    uint64
	logIndex uint
}

// candidate is a discovered relay that answered its ping.
type candidate struct {
	url  string
	ping *PingResponse
}

// discoverRelays returns the relay URLs registered on hub within the lookup window,
// most recently registered first. A manager's latest registration replaces earlier ones
// and URLs in skip are left out.
func (p *Provider) discoverRelays(ctx context.Context, hub common.Address, skip []string) ([]string, error) {
	head, err := p.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read block number: %w", err)
	}
	from := uint64(0)
	if window := p.cfg.RelayLookupWindowBlocks; window > 0 && head > window {
		from = head - window
	}

	event := relayHubABI.Events[relayRegisteredEvent]
	logs, err := p.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{hub},
		Topics:    [][]common.Hash{{event.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read relay registrations from hub %s: %w", hub.Hex(), err)
	}

	latest := make(map[common.Address]registration)
	for _, log := range logs {
		reg, ok := p.parseRegistration(log)
		if !ok {
			continue
		}
		prev, seen := latest[reg.manager]
		if !seen || reg.block > prev.block || (reg.block == prev.block && reg.logIndex > prev.logIndex) {
			latest[reg.manager] = reg
		}
	}

	regs := make([]registration, 0, len(latest))
	for _, reg := range latest {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].block != regs[j].block {
			return regs[i].block > regs[j].block
		}
		return regs[i].logIndex > regs[j].logIndex
	})

	excluded := make(map[string]bool, len(skip))
	for _, relayURL := range skip {
		excluded[relayURL] = true
	}
	urls := make([]string, 0, len(regs))
	for _, reg := range regs {
		if excluded[reg.url] {
			continue
		}
		excluded[reg.url] = true
		urls = append(urls, reg.url)
	}
	return urls, nil
}

func (p *Provider) parseRegistration(log types.Log) (registration, bool) {
	if log.Removed || len(log.Topics) < 2 {
		return registration{}, false
	}
	out, err := relayHubABI.Unpack(relayRegisteredEvent, log.Data)
	if err != nil || len(out) != 1 {
		p.logger.Debug("Skipping malformed relay registration in tx %s: %v", log.TxHash.Hex(), err)
		return registration{}, false
	}
	relayURL, ok := out[0].(string)
	if !ok {
		return registration{}, false
	}
	relayURL = strings.TrimRight(strings.TrimSpace(relayURL), "/")
	if relayURL == "" {
		return registration{}, false
	}
	return registration{
		manager:  common.BytesToAddress(log.Topics[1].Bytes()),
		url:      relayURL,
		block:    log.BlockNumber,
		logIndex: log.Index,
	}, true
}

// pingRelays pings urls SliceSize at a time and returns the ready ones in input order,
// along with the reason each of the others was passed over.
func (p *Provider) pingRelays(ctx context.Context, urls []string, hub common.Address) ([]candidate, []error) {
	sliceSize := p.cfg.SliceSize
	if sliceSize <= 0 {
		sliceSize = DefaultSliceSize
	}

	var (
		ready    []candidate
		failures []error
	)
	for start := 0; start < len(urls); start += sliceSize {
		batch := urls[start:min(start+sliceSize, len(urls))]
		pings := make([]*PingResponse, len(batch))
		errs := make([]error, len(batch))

		var wg sync.WaitGroup
		for i, relayURL := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ping, err := p.http.GetAddress(ctx, relayURL)
				if err == nil {
					err = p.checkRelay(ping, hub)
				}
				pings[i], errs[i] = ping, err
			}()
		}
		wg.Wait()

		for i, relayURL := range batch {
			if errs[i] != nil {
				p.logger.Debug("Discovered relay %s skipped: %v", relayURL, errs[i])
				failures = append(failures, fmt.Errorf("%s: %w", relayURL, errs[i]))
				continue
			}
			ready = append(ready, candidate{url: relayURL, ping: pings[i]})
		}
	}
	return ready, failures
}

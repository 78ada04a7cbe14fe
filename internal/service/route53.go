package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"subdel/internal/config"
	"subdel/internal/model"
)

// route53Gateway adapts Amazon Route 53 to the ZoneGateway contract.
// REPLACE patches map to UPSERT changes; DELETE patches (or a REPLACE
// with no records) map to DELETE changes against the current RRset.
type route53Gateway struct {
	client *route53.Client

	// zone name -> hosted zone ID, filled lazily. Route 53 addresses
	// zones by ID, not name.
	mu      sync.RWMutex
	zoneIDs map[string]string
}

func newRoute53Gateway(gc config.GatewayConfig) (*route53Gateway, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(gc.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(gc.AccessKeyID, gc.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &route53Gateway{
		client:  route53.NewFromConfig(awsCfg),
		zoneIDs: map[string]string{},
	}, nil
}

func (g *route53Gateway) zoneID(ctx context.Context, name string) (string, error) {
	g.mu.RLock()
	id, ok := g.zoneIDs[name]
	g.mu.RUnlock()
	if ok {
		return id, nil
	}

	out, err := g.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(name),
		MaxItems: aws.Int32(1),
	})
	if err != nil {
		return "", err
	}
	for _, z := range out.HostedZones {
		if *z.Name == name {
			id := extractZoneID(*z.Id)
			g.rememberZoneID(name, id)
			return id, nil
		}
	}
	return "", fmt.Errorf("hosted zone %s not found", name)
}

func (g *route53Gateway) rememberZoneID(name, id string) {
	g.mu.Lock()
	g.zoneIDs[name] = id
	g.mu.Unlock()
}

func (g *route53Gateway) CreateZone(ctx context.Context, name string, nameservers []string) error {
	out, err := g.client.CreateHostedZone(ctx, &route53.CreateHostedZoneInput{
		Name:            aws.String(name),
		CallerReference: aws.String(fmt.Sprintf("%s-%d", name, time.Now().UnixNano())),
	})
	if err != nil {
		return err
	}
	g.rememberZoneID(name, extractZoneID(*out.HostedZone.Id))
	return nil
}

func (g *route53Gateway) GetZone(ctx context.Context, name string) (model.Zone, error) {
	id, err := g.zoneID(ctx, name)
	if err != nil {
		return model.Zone{}, err
	}

	zone := model.Zone{ID: id, Name: name, Kind: "Native"}

	var nextName *string
	var nextType types.RRType
	for {
		input := &route53.ListResourceRecordSetsInput{
			HostedZoneId: aws.String(id),
		}
		if nextName != nil {
			input.StartRecordName = nextName
			input.StartRecordType = nextType
		}

		result, err := g.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			return model.Zone{}, err
		}

		for _, rrs := range result.ResourceRecordSets {
			set := model.RRset{
				Name: *rrs.Name,
				Type: string(rrs.Type),
			}
			if rrs.TTL != nil {
				set.TTL = uint32(*rrs.TTL)
			}
			for _, r := range rrs.ResourceRecords {
				set.Records = append(set.Records, model.Record{Content: *r.Value})
			}
			zone.RRsets = append(zone.RRsets, set)
		}

		if !result.IsTruncated {
			break
		}
		nextName = result.NextRecordName
		nextType = result.NextRecordType
	}

	return zone, nil
}

func (g *route53Gateway) PatchRRsets(ctx context.Context, zone string, rrsets []model.RRset) error {
	id, err := g.zoneID(ctx, zone)
	if err != nil {
		return err
	}

	var changes []types.Change
	for _, set := range rrsets {
		change, err := g.toChange(ctx, id, set)
		if err != nil {
			return err
		}
		if change == nil {
			continue
		}
		changes = append(changes, *change)
	}
	if len(changes) == 0 {
		return nil
	}

	_, err = g.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(id),
		ChangeBatch: &types.ChangeBatch{
			Comment: aws.String("Changed via subdel"),
			Changes: changes,
		},
	})
	return err
}

func (g *route53Gateway) toChange(ctx context.Context, zoneID string, set model.RRset) (*types.Change, error) {
	deleting := strings.EqualFold(set.ChangeType, "DELETE") || len(set.Records) == 0

	if deleting {
		// Route 53 DELETE must restate the existing RRset verbatim.
		current, err := g.currentRRset(ctx, zoneID, set.Name, set.Type)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, nil
		}
		return &types.Change{Action: types.ChangeActionDelete, ResourceRecordSet: current}, nil
	}

	var records []types.ResourceRecord
	for _, r := range set.Records {
		records = append(records, types.ResourceRecord{Value: aws.String(r.Content)})
	}
	return &types.Change{
		Action: types.ChangeActionUpsert,
		ResourceRecordSet: &types.ResourceRecordSet{
			Name:            aws.String(set.Name),
			Type:            types.RRType(set.Type),
			TTL:             aws.Int64(int64(set.TTL)),
			ResourceRecords: records,
		},
	}, nil
}

func (g *route53Gateway) currentRRset(ctx context.Context, zoneID, name, rrtype string) (*types.ResourceRecordSet, error) {
	out, err := g.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: types.RRType(rrtype),
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	for _, rrs := range out.ResourceRecordSets {
		if *rrs.Name == name && string(rrs.Type) == rrtype {
			return &rrs, nil
		}
	}
	return nil, nil
}

func (g *route53Gateway) DeleteZone(ctx context.Context, name string) error {
	id, err := g.zoneID(ctx, name)
	if err != nil {
		return err
	}
	_, err = g.client.DeleteHostedZone(ctx, &route53.DeleteHostedZoneInput{
		Id: aws.String(id),
	})
	if err == nil {
		g.mu.Lock()
		delete(g.zoneIDs, name)
		g.mu.Unlock()
	}
	return err
}

func extractZoneID(fullID string) string {
	parts := strings.Split(fullID, "/")
	return parts[len(parts)-1]
}

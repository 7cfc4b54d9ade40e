/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

type walletGenerator = func(t *testing.T) (*Wallet, error)

func testWalletSuite(t *testing.T, gen walletGenerator) {
	tests := []struct {
		title string
		run   func(t *testing.T, wallet *Wallet)
	}{
		{"testInsertionAndExistance", testInsertionAndExistance},
		{"testNonExistance", testNonExistance},
		{"testLookupNonExist", testLookupNonExist},
		{"testInsertionAndLookup", testInsertionAndLookup},
		{"testHSMIdentityLookup", testHSMIdentityLookup},
		{"testContentsOfWallet", testContentsOfWallet},
		{"testRemovalFromWallet", testRemovalFromWallet},
		{"testRemoveNonExist", testRemoveNonExist},
		{"testPutInvalidID", testPutInvalidID},
		{"testPutOverwrites", testPutOverwrites},
		{"testInsertDoesNotOverwrite", testInsertDoesNotOverwrite},
		{"testConcurrentInsert", testConcurrentInsert},
		{"testInvalidLabel", testInvalidLabel},
	}
	for _, test := range tests {
		t.Run(test.title, func(t *testing.T) {
			wallet, err := gen(t)
			if err != nil {
				t.Fatalf("Failed to create the wallet instance: %s", err)
			}
			defer wallet.Close()
			test.run(t, wallet)
		})
	}
}

func testInsertionAndExistance(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	if err := wallet.Put(ctx, "label1", NewX509Identity("msp", "testCert", "testPrivKey")); err != nil {
		t.Fatalf("Failed to put identity: %s", err)
	}
	exists, err := wallet.Exists(ctx, "label1")
	if err != nil || !exists {
		t.Fatalf("Expected label1 to be in wallet: %v", err)
	}
}

func testNonExistance(t *testing.T, wallet *Wallet) {
	exists, err := wallet.Exists(context.Background(), "label1")
	if err != nil || exists {
		t.Fatalf("Expected label1 to not be in wallet: %v", err)
	}
}

func testLookupNonExist(t *testing.T, wallet *Wallet) {
	_, err := wallet.Get(context.Background(), "label1")
	if !IsNotFound(err) {
		t.Fatalf("Expected not found error for label1, got %v", err)
	}
}

func testInsertionAndLookup(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	if err := wallet.Insert(ctx, "label1", NewX509Identity("msp", "testCert", "testPrivKey")); err != nil {
		t.Fatalf("Failed to insert identity: %s", err)
	}
	entry, err := wallet.Get(ctx, "label1")
	if err != nil {
		t.Fatalf("Failed to lookup identity: %s", err)
	}
	if entry.Type() != X509Type {
		t.Fatalf("Unexpected identity type: %s", entry.Type())
	}
	x509 := entry.(*X509Identity)
	if x509.MSPID() != "msp" || x509.Certificate() != "testCert" || x509.Key() != "testPrivKey" {
		t.Fatalf("Unexpected identity content: %+v", x509)
	}
}

func testHSMIdentityLookup(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	if err := wallet.Put(ctx, "hsm", NewHsmx509Identity("msp", "testCert")); err != nil {
		t.Fatalf("Failed to put identity: %s", err)
	}
	entry, err := wallet.Get(ctx, "hsm")
	if err != nil {
		t.Fatalf("Failed to lookup identity: %s", err)
	}
	if entry.Type() != HSMX509Type || entry.Certificate() != "testCert" {
		t.Fatalf("Unexpected identity: %+v", entry)
	}
}

func testContentsOfWallet(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	contents, _ := wallet.List(ctx)
	if len(contents) != 0 {
		t.Fatal("Wallet should be empty")
	}
	_ = wallet.Put(ctx, "label2", NewX509Identity("msp", "testCert", "testPrivKey"))
	_ = wallet.Put(ctx, "label1", NewX509Identity("msp", "testCert", "testPrivKey"))
	contents, _ = wallet.List(ctx)
	expected := []string{"label1", "label2"}
	if !reflect.DeepEqual(contents, expected) {
		t.Fatalf("Unexpected wallet contents: %s", contents)
	}
}

func testRemovalFromWallet(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	_ = wallet.Put(ctx, "label1", NewX509Identity("msp", "testCert1", "testPrivKey"))
	_ = wallet.Put(ctx, "label2", NewX509Identity("msp", "testCert2", "testPrivKey"))
	_ = wallet.Put(ctx, "label3", NewX509Identity("msp", "testCert3", "testPrivKey"))
	if err := wallet.Remove(ctx, "label2"); err != nil {
		t.Fatalf("Failed to remove identity: %s", err)
	}
	contents, _ := wallet.List(ctx)
	expected := []string{"label1", "label3"}
	if !reflect.DeepEqual(contents, expected) {
		t.Fatalf("Unexpected wallet contents: %s", contents)
	}
	if _, err := wallet.Get(ctx, "label2"); !IsNotFound(err) {
		t.Fatalf("Expected removed identity to be gone, got %v", err)
	}
}

func testRemoveNonExist(t *testing.T, wallet *Wallet) {
	err := wallet.Remove(context.Background(), "label1")
	if err != nil {
		t.Fatal("Remove should not throw error for non-existant label")
	}
}

func testPutInvalidID(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	if err := wallet.Put(ctx, "label4", &badIdentity{}); err == nil {
		t.Fatal("Put should throw error for bad identity")
	}
	if err := wallet.Insert(ctx, "label4", nil); err == nil {
		t.Fatal("Insert should throw error for missing identity")
	}
}

func testPutOverwrites(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	_ = wallet.Put(ctx, "label1", NewX509Identity("msp", "testCert1", "testPrivKey"))
	_ = wallet.Put(ctx, "label1", NewX509Identity("msp", "testCert2", "testPrivKey"))
	entry, err := wallet.Get(ctx, "label1")
	if err != nil {
		t.Fatalf("Failed to lookup identity: %s", err)
	}
	if entry.Certificate() != "testCert2" {
		t.Fatalf("Expected Put to replace the identity, got %s", entry.Certificate())
	}
}

func testInsertDoesNotOverwrite(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	if err := wallet.Insert(ctx, "label1", NewX509Identity("msp", "testCert1", "testPrivKey")); err != nil {
		t.Fatalf("Failed to insert identity: %s", err)
	}
	err := wallet.Insert(ctx, "label1", NewX509Identity("msp", "testCert2", "testPrivKey"))
	if !IsAlreadyExists(err) {
		t.Fatalf("Expected already exists error, got %v", err)
	}
	entry, err := wallet.Get(ctx, "label1")
	if err != nil {
		t.Fatalf("Failed to lookup identity: %s", err)
	}
	if entry.Certificate() != "testCert1" {
		t.Fatalf("Insert must not replace an identity, got %s", entry.Certificate())
	}
}

func testConcurrentInsert(t *testing.T, wallet *Wallet) {
	const writers = 8
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- wallet.Insert(ctx, "contended", NewX509Identity("msp", fmt.Sprintf("cert%d", i), "key"))
		}(i)
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case !IsAlreadyExists(err):
			t.Fatalf("Unexpected insert error: %s", err)
		}
	}
	if won != 1 {
		t.Fatalf("Expected exactly one insert to succeed, got %d", won)
	}
}

func testInvalidLabel(t *testing.T, wallet *Wallet) {
	ctx := context.Background()
	for _, label := range []string{"", "..", "a/b", `a\b`} {
		if err := wallet.Put(ctx, label, NewX509Identity("msp", "cert", "key")); err == nil {
			t.Fatalf("Expected error for label %q", label)
		}
		if _, err := wallet.Get(ctx, label); err == nil || IsNotFound(err) {
			t.Fatalf("Expected validation error for label %q", label)
		}
	}
}

func TestGetFromCorruptWallet(t *testing.T) {
	wallet := NewWalletWithStore(&corruptWallet{})
	_, err := wallet.Get(context.Background(), "user")
	if err == nil {
		t.Fatalf("Get should throw error for corrupt entry")
	}
}

func TestDefaultProviderRegistry(t *testing.T) {
	wallet := NewInMemoryWallet()
	types := wallet.ProviderRegistry().Types()
	if !reflect.DeepEqual(types, []string{HSMX509Type, X509Type}) {
		t.Fatalf("Unexpected provider types: %v", types)
	}
}

type badIdentity struct{}

func (id *badIdentity) Type() string {
	return "bad"
}

func (id *badIdentity) MSPID() string {
	return "mspid"
}

func (id *badIdentity) Certificate() string {
	return ""
}

func (id *badIdentity) toJSON() ([]byte, error) {
	return nil, errors.New("toJSON error")
}

func (id *badIdentity) fromJSON(data []byte) (Identity, error) {
	return nil, errors.New("fromJSON error")
}

type corruptWallet struct{}

func (cw *corruptWallet) Put(context.Context, string, []byte) error {
	return nil
}

func (cw *corruptWallet) Insert(context.Context, string, []byte) error {
	return nil
}

func (cw *corruptWallet) Get(context.Context, string) ([]byte, error) {
	return []byte("{\"type\":\"X.509\",\"credentials\":\"corrupt\"}"), nil
}

func (cw *corruptWallet) List(context.Context) ([]string, error) {
	return nil, nil
}

func (cw *corruptWallet) Exists(context.Context, string) (bool, error) {
	return false, nil
}

func (cw *corruptWallet) Remove(context.Context, string) error {
	return nil
}

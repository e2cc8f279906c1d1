// Command chat-db creates, resets or upgrades the database and optionally loads seed data.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/memory"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/mongodb"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/mysql"
	_ "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/postgres"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	jcr "github.com/tinode/jsonco"
)

type configType struct {
	StoreConfig json.RawMessage `json:"store_config"`
}

func main() {
	var reset = flag.Bool("reset", false, "force database reset")
	var upgrade = flag.Bool("upgrade", false, "perform database version upgrade")
	var noInit = flag.Bool("no_init", false, "check that database exists but don't create if missing")
	var datafile = flag.String("data", "", "name of file with seed data to load")
	var conffile = flag.String("config", "./chat.conf", "config of the database connection")

	flag.Parse()

	var data *Data
	if *datafile != "" && *datafile != "-" {
		var err error
		if data, err = loadData(*datafile); err != nil {
			log.Fatalln("Failed to load seed data:", err)
		}
	}

	var config configType
	if file, err := os.Open(*conffile); err != nil {
		log.Fatalln("Failed to read config file:", err)
	} else {
		jr := jcr.New(file)
		if err = json.NewDecoder(jr).Decode(&config); err != nil {
			switch jerr := err.(type) {
			case *json.UnmarshalTypeError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				log.Fatalf("Unmarshall error in config file in %s at %d:%d (offset %d bytes): %s",
					jerr.Field, lnum, cnum, jerr.Offset, jerr.Error())
			case *json.SyntaxError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				log.Fatalf("Syntax error in config file at %d:%d (offset %d bytes): %s",
					lnum, cnum, jerr.Offset, jerr.Error())
			default:
				log.Fatal("Failed to parse config file: ", err)
			}
		}
		file.Close()
	}

	err := store.Store.Open(1, config.StoreConfig)
	defer store.Store.Close()

	log.Println("Database", store.Store.GetAdapterName(), store.Store.GetAdapterVersion())

	if err != nil {
		if strings.Contains(err.Error(), "Database not initialized") {
			if *noInit {
				log.Fatalln("Database not found.")
			}
			log.Println("Database not found. Creating.")
		} else if strings.Contains(err.Error(), "Invalid database version") {
			msg := "Wrong DB version: expected " + strconv.Itoa(store.Store.GetAdapterVersion()) + ", got " +
				strconv.Itoa(store.Store.GetDbVersion()) + "."
			if *reset {
				log.Println(msg, "Dropping and recreating the database.")
			} else if *upgrade {
				log.Println(msg, "Upgrading the database.")
			} else {
				log.Fatalln(msg, "Use --reset to reset, --upgrade to upgrade.")
			}
		} else {
			log.Fatalln("Failed to init DB adapter:", err)
		}
	} else if *reset {
		log.Println("Database reset requested")
	} else if data == nil {
		log.Println("Database exists, DB version is correct. All done.")
		return
	}

	if *upgrade {
		// Upgrade DB from one version to another.
		err = store.Store.UpgradeDb(config.StoreConfig)
		if err == nil {
			log.Println("Database successfully upgraded.")
		}
	} else if err != nil || *reset {
		// Reset or create DB
		err = store.Store.InitDb(config.StoreConfig, true)
		if err == nil {
			var action string
			if *reset {
				action = "reset"
			} else {
				action = "initialized"
			}
			log.Println("Database", action)
		}
	}

	if err != nil {
		log.Fatalln("Failed to init DB:", err)
	}

	if data == nil {
		return
	}
	if *upgrade {
		log.Println("Seed data ignored. All done.")
		return
	}

	ids, err := genDb(data)
	if err != nil {
		log.Fatalln("Failed to load seed data:", err)
	}
	for name, id := range ids.users {
		log.Printf("User '%s': %s", name, id)
	}
	for name, id := range ids.channels {
		log.Printf("Channel '%s': %s", name, id)
	}
	log.Println("Seed data loaded.")
}
